// Package cart parses cartridge headers and builds the appropriate memory
// bank controller for a loaded ROM image.
package cart

import (
	"fmt"
	"log/slog"
)

// Cartridge bundles a parsed header with the mapper that serves its ROM and
// RAM ranges.
type Cartridge struct {
	Header Header
	Mapper Mapper
}

// Load parses a raw ROM image and constructs the mapper identified by the
// cartridge type byte. Only ROM_ONLY and MBC1 are implemented; anything
// else falls back to MBC1-compatible plain banking with a logged warning,
// since every other documented Non-goal in this system explicitly excludes
// CGB-only titles and link-cable play that would need MBC2/3/5 specifics.
func Load(rom []byte) (*Cartridge, error) {
	header, err := ParseHeader(rom)
	if err != nil {
		return nil, fmt.Errorf("cart: load failed: %w", err)
	}

	if !header.Verify() {
		slog.Warn("cart: header checksum mismatch", "title", header.Title,
			"want", header.HeaderChecksum, "got", header.ComputedChecksum)
	}

	var mapper Mapper
	switch header.CartridgeType {
	case 0x00:
		mapper = NewNoMBC(rom)
	case 0x01, 0x02, 0x03:
		mapper = NewMBC1(rom, header.RAMBankCount())
	default:
		slog.Warn("cart: unsupported mapper type, defaulting to MBC1 banking",
			"type", fmt.Sprintf("%#02x", header.CartridgeType), "title", header.Title)
		mapper = NewMBC1(rom, header.RAMBankCount())
	}

	slog.Info("cart: loaded", "title", header.Title, "mapper_type", fmt.Sprintf("%#02x", header.CartridgeType),
		"rom_banks", header.ROMBankCount(), "ram_banks", header.RAMBankCount())

	return &Cartridge{Header: header, Mapper: mapper}, nil
}

func (c *Cartridge) Read(address uint16) byte {
	return c.Mapper.Read(address)
}

func (c *Cartridge) Write(address uint16, value byte) {
	c.Mapper.Write(address, value)
}
