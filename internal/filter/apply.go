package filter

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Apply runs the genome's filter pipeline on a grayscale image and returns
// the enhanced image. The input is not modified; the caller owns the
// returned mat and must close it. Application is deterministic: the same
// genome and pixels always produce the same output.
func Apply(src gocv.Mat, g Genome) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.NewMat(), fmt.Errorf("apply %s: empty image", g.Family)
	}
	if err := Validate(g); err != nil {
		return gocv.NewMat(), fmt.Errorf("apply: %w", err)
	}

	switch g.Family {
	case FamilyAdvanced:
		return applyAdvanced(src, g), nil
	case FamilyBasic:
		return applyBasic(src, g), nil
	default:
		return gocv.NewMat(), fmt.Errorf("apply: unknown family %q", g.Family)
	}
}

// applyAdvanced runs denoise -> CLAHE -> edge-preserving smoothing ->
// unsharp mask -> scan-line removal. Stages with zero-valued parameters
// are skipped.
func applyAdvanced(src gocv.Mat, g Genome) gocv.Mat {
	cur := src.Clone()

	if h := g.Params[AdvDenoiseStrength]; h > 0 {
		dst := gocv.NewMat()
		gocv.FastNlMeansDenoisingWithParams(cur, &dst, float32(h), 7, 21)
		cur.Close()
		cur = dst
	}

	if clip := g.Params[AdvClaheClip]; clip > 0 {
		clahe := gocv.NewCLAHEWithParams(clip, image.Pt(8, 8))
		dst := gocv.NewMat()
		clahe.Apply(cur, &dst)
		clahe.Close()
		cur.Close()
		cur = dst
	}

	if d := int(g.Params[AdvSmoothDiameter]); d > 1 {
		dst := gocv.NewMat()
		gocv.BilateralFilter(cur, &dst, d,
			g.Params[AdvSigmaColor], g.Params[AdvSigmaSpace])
		cur.Close()
		cur = dst
	}

	if amount := g.Params[AdvSharpenAmount]; amount > 0 {
		radius := int(g.Params[AdvSharpenRadius])
		blurred := gocv.NewMat()
		gocv.GaussianBlur(cur, &blurred, image.Pt(radius, radius), 0, 0, gocv.BorderDefault)
		dst := gocv.NewMat()
		gocv.AddWeighted(cur, 1+amount, blurred, -amount, 0, &dst)
		blurred.Close()
		cur.Close()
		cur = dst
	}

	if n := int(g.Params[AdvScanlineKernel]); n >= 3 {
		// Close thin horizontal dark streaks left by scanner transport.
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(n, 1))
		dst := gocv.NewMat()
		gocv.MorphologyEx(cur, &dst, gocv.MorphClose, kernel)
		kernel.Close()
		cur.Close()
		cur = dst
	}

	return cur
}

// applyBasic runs a global contrast stretch about mid-gray followed by a
// median filter.
func applyBasic(src gocv.Mat, g Genome) gocv.Mat {
	factor := g.Params[BasicContrastFactor]

	cur := gocv.NewMat()
	// dst = factor*(src - 128) + 128, saturating to 8-bit.
	src.ConvertToWithParams(&cur, gocv.MatTypeCV8UC1,
		float32(factor), float32(128*(1-factor)))

	if w := int(g.Params[BasicMedianWindow]); w > 1 {
		dst := gocv.NewMat()
		gocv.MedianBlur(cur, &dst, w)
		cur.Close()
		cur = dst
	}

	return cur
}
