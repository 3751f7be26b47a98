/*
Package rabbitmq provides a RabbitMQ delivery adapter for the hub.
Deliveries are published to a topic exchange with routing key "<conn>.<event>", so a client binds
"<conn>.#" to receive everything addressed to it. It includes an auto-reconnect publisher and
supports optional header propagation via a hub.HeaderPropagator.
*/
package rabbitmq
