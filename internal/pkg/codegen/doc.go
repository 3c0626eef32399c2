// Package codegen generates random numeric passcodes.
//
// Codes are produced from crypto/rand so they are unpredictable; a passcode
// is a fixed-length decimal string, zero-padded on the left.
package codegen
