package codec

import "image"

// FlipVertical reverses the row order of a row-major height grid in place.
func FlipVertical(heights []float32, width, height int) {
	for top, bottom := 0, height-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := heights[top*width : (top+1)*width]
		b := heights[bottom*width : (bottom+1)*width]
		for i := range a {
			a[i], b[i] = b[i], a[i]
		}
	}
}

// MarkNoData clears the alpha of every texel for which noData reports true.
func MarkNoData(img *image.NRGBA, noData func(col, row int) bool) {
	b := img.Bounds()
	for row := range b.Dy() {
		for col := range b.Dx() {
			if noData(col, row) {
				img.Pix[img.PixOffset(b.Min.X+col, b.Min.Y+row)+3] = 0
			}
		}
	}
}

// MarkNoDataHeights replaces every height for which noData reports true with sentinel.
func MarkNoDataHeights(heights []float32, width int, sentinel float32, noData func(col, row int) bool) {
	for i := range heights {
		if noData(i%width, i/width) {
			heights[i] = sentinel
		}
	}
}
