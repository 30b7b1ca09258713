// Package rascal turns a declarative description of AMQP messaging
// topology — virtual hosts, exchanges, queues, bindings, publications,
// subscriptions and shovels — into a running broker facade. Callers
// publish and consume messages through named Publications and
// Subscriptions without managing channels, confirms, redelivery,
// reconnection or encryption directly.
//
// A Broker is built from a configuration tree (see the config package
// for the Configurator/Validator that expand and validate it) with
// Create. The resulting Broker exposes a small verb surface: Publish,
// Forward, Subscribe, SubscribeAll, UnsubscribeAll, Nuke, Purge,
// Shutdown, Bounce and Connect.
package rascal
