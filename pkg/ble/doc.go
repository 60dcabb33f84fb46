// Package ble implements gatt.Adapter over a Bluetooth Low Energy radio.
//
// The radio itself is tinygo.org/x/bluetooth. Its calls block, so every
// adapter operation runs on its own goroutine and reports through the
// gatt callbacks. Operations on one connection are serialized.
package ble
