// Package mail provides the SMTP transport for the notify service: short-lived
// connections built from resolved provider configuration, with a verify
// handshake before sending and per-recipient delivery accounting.
package mail
