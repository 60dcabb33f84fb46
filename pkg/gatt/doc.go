// Package gatt defines the contract between the smartdoor protocol engine
// and a transport that can reach a lock: scanning, connecting, service
// discovery and characteristic reads and writes.
//
// Every Adapter method is fire-and-forget. A nil error means the operation
// was issued; its result arrives later through the callbacks registered with
// Scan or Connect, on a goroutine the caller does not control.
//
// Implementations live in pkg/ble (Bluetooth LE radio) and pkg/transport
// (GATT tables served over TCP).
package gatt
