package texture

// NewChecker builds a 24-bit checkerboard of red and green cells of cellSize
// pixels. Column 0 and row 0 form their own half cell.
func NewChecker(width, height, cellSize int) (*Image, error) {
	img, err := New(width, height, 3, 0)
	if err != nil {
		return nil, err
	}
	if cellSize <= 0 {
		cellSize = 1
	}

	i := 0
	for y := range height {
		for x := range width {
			evenX := ceilDiv(x, cellSize)%2 == 0
			evenY := ceilDiv(y, cellSize)%2 == 0
			if evenX != evenY {
				img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 0, 0, 255
			} else {
				img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 0, 255, 0
			}
			i += 3
		}
	}
	return img, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// NewFlatNormal builds a tangent-space normal map whose every texel encodes
// the unperturbed normal (0, 0, 1).
func NewFlatNormal(width, height int) (*Image, error) {
	img, err := New(width, height, 3, 0)
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(img.Pix); i += 3 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 255, 128, 128
	}
	return img, nil
}
