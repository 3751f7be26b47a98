/*
Package wire defines the JSON frames exchanged between a hub session and its remote client.
Inbound frames are parsed with gjson so that the frame type can be inspected before the
payload is decoded; outbound payloads and responses are encoded with goccy/go-json.
*/
package wire
