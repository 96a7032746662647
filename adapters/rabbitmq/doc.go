/*
Package rabbitmq publishes dispatch outcomes to a RabbitMQ topic exchange.
Routing keys are "<kind>.<message>", so a queue bound with "query.#" sees every query outcome.
It includes an auto-reconnect publisher and supports optional header propagation via a
cqrs.HeaderPropagator.
*/
package rabbitmq
