// Package pasori drives Sony PaSoRi-family (RC-S310/S320/S330) contactless
// card readers over USB, implementing the FeliCa wire protocol (Polling,
// Read/Write Without Encryption, Request Service, Request Response, Request
// System Code, Search Service Code) behind a single model-aware handle.
//
// Open a Device from a Transport (OpenUSB for real hardware, or a
// MockTransport in tests), call Initialize to run the hardware-generation
// handshake, and drive the resulting InitializedDevice with Polling,
// ListPassiveTargets, or a Card's own operations.
package pasori
