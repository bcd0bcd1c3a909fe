// Command gen emits the AVX2 range reduction used by simd.MinMax.
//
//	go run ./gen -stubs ./stubs_avo_amd64.go -out ./reduce_avo_amd64.s
package main

import (
	. "github.com/mmcloughlin/avo/build"
	. "github.com/mmcloughlin/avo/operand"
	reg "github.com/mmcloughlin/avo/reg"
)

func main() {
	ConstraintExpr("avo && amd64 && !purego")
	Package("github.com/sanonone/noisegraph/pkg/simd")

	TEXT("MinMaxAVX2", NOSPLIT, "func(v []float32) (lo, hi float32)")
	Pragma("noescape")
	Doc("MinMaxAVX2 returns the smallest and largest element of a non-empty slice using AVX2.")
	generateMinMax()
	Generate()
}

func generateMinMax() {
	ptr := Load(Param("v").Base(), GP64())
	n := Load(Param("v").Len(), GP64())

	lo := YMM()
	hi := YMM()
	VBROADCASTSS(Mem{Base: ptr}, lo)
	VBROADCASTSS(Mem{Base: ptr}, hi)

	Label("loop_minmax")
	CMPQ(n, Imm(8))
	JL(LabelRef("reduce_minmax"))

	v := YMM()
	VMOVUPS(Mem{Base: ptr}, v)
	VMINPS(v, lo, lo)
	VMAXPS(v, hi, hi)

	ADDQ(Imm(32), ptr)
	SUBQ(Imm(8), n)
	JMP(LabelRef("loop_minmax"))

	// Fold the vector accumulators before the scalar tail: VEX scalar ops
	// clear the upper half of the register.
	Label("reduce_minmax")
	horizontal(lo, VMINPS)
	horizontal(hi, VMAXPS)

	Label("remainder_minmax")
	CMPQ(n, Imm(0))
	JE(LabelRef("done_minmax"))

	x := XMM()
	VMOVSS(Mem{Base: ptr}, x)
	VMINSS(x, lo.AsX(), lo.AsX())
	VMAXSS(x, hi.AsX(), hi.AsX())

	ADDQ(Imm(4), ptr)
	SUBQ(Imm(1), n)
	JMP(LabelRef("remainder_minmax"))

	Label("done_minmax")
	Store(lo.AsX(), ReturnIndex(0))
	Store(hi.AsX(), ReturnIndex(1))
	VZEROUPPER()
	RET()
}

// horizontal reduces the 8 lanes of vec into lane 0 using op.
func horizontal(vec reg.VecVirtual, op func(ops ...Op)) {
	t := YMM()
	VEXTRACTF128(Imm(1), vec, t.AsX())
	op(t.AsX(), vec.AsX(), vec.AsX())

	VSHUFPS(Imm(0b11101110), vec.AsX(), vec.AsX(), t.AsX())
	op(t.AsX(), vec.AsX(), vec.AsX())

	VSHUFPS(Imm(0b01010101), vec.AsX(), vec.AsX(), t.AsX())
	op(t.AsX(), vec.AsX(), vec.AsX())
}
