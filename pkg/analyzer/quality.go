package analyzer

import "encoding/binary"

// stdLuminance is the IJG base luminance quantization table in zigzag order,
// the order DQT segments store it in.
var stdLuminance = [64]int{
	16, 11, 12, 14, 12, 10, 16, 14, 13, 14, 18, 17, 16, 19, 24, 40,
	26, 24, 22, 22, 24, 49, 35, 37, 29, 40, 58, 51, 61, 60, 57, 51,
	56, 55, 64, 72, 92, 78, 64, 68, 87, 69, 55, 56, 80, 109, 81, 87,
	95, 98, 103, 104, 103, 62, 77, 113, 121, 112, 100, 120, 92, 101, 103, 99,
}

// jpegQuality estimates the IJG quality (1-100) a JPEG was saved with from
// its luminance quantization table. It returns 0 when data holds no such
// table.
func jpegQuality(data []byte) int {
	table, ok := luminanceTable(data)
	if !ok {
		return 0
	}

	// entries clamped at 255 carry no scale information
	var sum, base, ones int
	for i, q := range table {
		if q == 1 {
			ones++
		}
		if q < 255 {
			sum += q
			base += stdLuminance[i]
		}
	}
	switch {
	case ones == len(table):
		return 100
	case base == 0:
		return 1
	}

	scale := float64(sum) * 100 / float64(base)
	var quality float64
	if scale <= 100 {
		quality = (200 - scale) / 2
	} else {
		quality = 5000 / scale
	}
	return min(max(int(quality+0.5), 1), 100)
}

// luminanceTable walks the JPEG markers up to the first scan and returns
// quantization table 0.
func luminanceTable(data []byte) ([64]int, bool) {
	var table [64]int
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return table, false
	}

	for i := 2; i+4 <= len(data); {
		if data[i] != 0xFF {
			return table, false
		}
		marker := data[i+1]
		if marker == 0xFF {
			i++
			continue
		}
		if marker == 0xDA || marker == 0xD9 {
			break
		}
		length := int(binary.BigEndian.Uint16(data[i+2:]))
		end := i + 2 + length
		if length < 2 || end > len(data) {
			return table, false
		}

		if marker == 0xDB {
			for p := i + 4; p < end; {
				precision, id := data[p]>>4, data[p]&0x0F
				size := 64
				if precision != 0 {
					size = 128
				}
				if p+1+size > end {
					return table, false
				}
				if id == 0 {
					for k := range table {
						if precision != 0 {
							table[k] = int(binary.BigEndian.Uint16(data[p+1+2*k:]))
						} else {
							table[k] = int(data[p+1+k])
						}
					}
					return table, true
				}
				p += 1 + size
			}
		}
		i = end
	}
	return table, false
}
