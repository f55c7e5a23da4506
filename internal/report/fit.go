package report

// FitImage scales source dimensions (w, h) down to fit inside a
// maxW x maxH content box, preserving aspect ratio. Width is clamped
// first with height recomputed from the original ratio, then the result
// is clamped to maxH with width recomputed. Images already inside the box
// are left at their original size.
func FitImage(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	fw, fh := w, h
	if fw > maxW {
		fh = fh * maxW / fw
		fw = maxW
	}
	if fh > maxH {
		fw = fw * maxH / fh
		fh = maxH
	}
	return fw, fh
}
