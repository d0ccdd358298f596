// Package transport defines the chat-platform contract the core depends on:
// inbound file/text events and the opaque download/send/edit/delete calls.
// The wire protocol lives entirely behind this interface.
package transport
