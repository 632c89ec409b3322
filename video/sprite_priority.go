package video

// spritePriority resolves per-pixel sprite ownership for a single scanline
// using the DMG priority rule: lower X wins, ties broken by lower OAM index.
// Resolving ownership up front during OAM selection avoids re-sorting the
// candidate sprite list before the draw pass.
type spritePriority struct {
	ownerIndex [Width]int
	ownerX     [Width]int
}

func (s *spritePriority) Clear() {
	for i := range s.ownerIndex {
		s.ownerIndex[i] = -1
		s.ownerX[i] = 0xFF
	}
}

// TryClaimPixel attempts to claim pixelX for spriteIndex (at spriteX);
// returns true if the sprite now owns the pixel.
func (s *spritePriority) TryClaimPixel(pixelX, spriteIndex, spriteX int) bool {
	if pixelX < 0 || pixelX >= Width {
		return false
	}

	owner := s.ownerIndex[pixelX]
	if owner == -1 {
		s.ownerIndex[pixelX], s.ownerX[pixelX] = spriteIndex, spriteX
		return true
	}

	ownerX := s.ownerX[pixelX]
	if spriteX < ownerX || (spriteX == ownerX && spriteIndex < owner) {
		s.ownerIndex[pixelX], s.ownerX[pixelX] = spriteIndex, spriteX
		return true
	}
	return false
}

func (s *spritePriority) GetOwner(pixelX int) int {
	if pixelX < 0 || pixelX >= Width {
		return -1
	}
	return s.ownerIndex[pixelX]
}
