/*
Package hub implements the in-process event hub: a subscription registry, a routine registry,
a publisher that fans messages out to subscribed connections, and a call dispatcher that runs
routines asynchronously and hands each caller its own outcome.

Transports drive the hub through Sessions, one per external connection, and deliver fan-out
traffic through a contract Sender. The hub holds no global state and no error is fatal to it.
*/
package hub
