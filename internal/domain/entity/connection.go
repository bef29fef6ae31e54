package entity

// ConnectionState is the health of a live subscription as seen by its owner.
type ConnectionState string

const (
	ConnectionConnecting   ConnectionState = "connecting"
	ConnectionLive         ConnectionState = "live"
	ConnectionDisconnected ConnectionState = "disconnected"
)
