package main

import "fmt"

// CartridgeInfo is the human-readable header summary main.go prints at
// startup, the Game Boy analogue of the teacher's own MediaLoader sniffing
// a file extension to tell SID from PSG from TED before handing it to a
// player — here the "type" comes from the cartridge header's own type
// byte instead of a filename extension, since every file this loader ever
// sees is a .gb image.
type CartridgeInfo struct {
	Title      string
	CartType   byte
	CartName   string
	ROMSizeKB  int
	RAMSizeKB  int
	HasBattery bool
}

var cartTypeNames = map[byte]string{
	0x00: "ROM ONLY",
	0x01: "MBC1",
	0x02: "MBC1+RAM",
	0x03: "MBC1+RAM+BATTERY",
	0x0F: "MBC3+TIMER+BATTERY",
	0x10: "MBC3+TIMER+RAM+BATTERY",
	0x11: "MBC3",
	0x12: "MBC3+RAM",
	0x13: "MBC3+RAM+BATTERY",
}

var batteryCartTypes = map[byte]bool{
	0x03: true, 0x0F: true, 0x10: true, 0x13: true,
}

var ramSizeKB = map[byte]int{
	0x00: 0,
	0x01: 2,
	0x02: 8,
	0x03: 32,
	0x04: 128,
	0x05: 64,
}

// ParseCartridgeHeader reads the fixed-offset fields of a Game Boy
// cartridge header. It does not validate the header checksum or logo —
// that is a boot-ROM concern this driver has no boot ROM to enforce.
func ParseCartridgeHeader(rom []byte) (CartridgeInfo, error) {
	if len(rom) < 0x150 {
		return CartridgeInfo{}, fmt.Errorf("cartridge header: image too small (%d bytes)", len(rom))
	}

	titleBytes := rom[0x134:0x144]
	end := len(titleBytes)
	for i, b := range titleBytes {
		if b == 0 {
			end = i
			break
		}
	}

	cartType := rom[0x147]
	name, ok := cartTypeNames[cartType]
	if !ok {
		name = fmt.Sprintf("UNKNOWN ($%02X)", cartType)
	}

	romSizeCode := rom[0x148]
	romSizeKB := 32 << romSizeCode

	return CartridgeInfo{
		Title:      string(titleBytes[:end]),
		CartType:   cartType,
		CartName:   name,
		ROMSizeKB:  romSizeKB,
		RAMSizeKB:  ramSizeKB[rom[0x149]],
		HasBattery: batteryCartTypes[cartType],
	}, nil
}

func (c CartridgeInfo) String() string {
	return fmt.Sprintf("%-16s %-24s ROM:%4dKB RAM:%3dKB battery:%v", c.Title, c.CartName, c.ROMSizeKB, c.RAMSizeKB, c.HasBattery)
}
