package math3d

import (
	"math"
	"testing"
)

func BenchmarkMat4Mul(b *testing.B) {
	m1 := Translate(V3(1, 2, 3))
	m2 := RotateY(0.5)

	for b.Loop() {
		_ = m1.Mul(m2)
	}
}

func BenchmarkMat4MulVec4(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(RotateY(0.5))
	v := V4(1, 2, 3, 1)

	for b.Loop() {
		_ = m.MulVec4(v)
	}
}

func BenchmarkMat4Inverse(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(RotateY(0.5)).Mul(Scale(V3(2, 2, 2)))

	for b.Loop() {
		_ = m.Inverse()
	}
}

func BenchmarkVec3Normalize(b *testing.B) {
	v := V3(1, 2, 3)

	for b.Loop() {
		_ = v.Normalize()
	}
}

func BenchmarkClipToScreen(b *testing.B) {
	// viewport × proj × view, as built once per draw
	view := LookAt(V3(0, 0, 10), V3(0, 0, 0), Up())
	proj := Perspective(math.Pi/3, 1.333, 0.1, 100.0)
	vp := Viewport(640, 480, 255)
	p := V4(0.5, -0.25, 1, 1)

	for b.Loop() {
		m := vp.Mul(proj.Mul(view))
		_ = m.MulVec4(p)
	}
}
