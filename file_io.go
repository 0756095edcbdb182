package main

import (
	"fmt"
	"os"
)

// LoadROM reads a Game Boy ROM image from the host filesystem. The
// original FileIODevice's guest-MMIO path-sanitizing read/write pair has
// no guest side to serve here — a cartridge image is a host-side CLI
// argument, not something the emulated machine asks for at runtime — so
// this is a direct os.ReadFile wrapper rather than an adaptation of that
// device.
func LoadROM(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load rom %s: %w", path, err)
	}
	if len(data) < 0x150 {
		return nil, fmt.Errorf("load rom %s: file too small to contain a cartridge header (%d bytes)", path, len(data))
	}
	return data, nil
}
