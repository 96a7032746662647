/*
Package cqrs holds the contracts of the dispatch core: message markers, handler capabilities,
the per-dispatch resolution Scope and the Outcome journal record. It has no behavior of its own.
*/
package cqrs
