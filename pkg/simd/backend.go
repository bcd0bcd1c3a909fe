package simd

// Backend is the fixed operation set every vector width implements. F is the
// float32 vector type and I the int32 vector type; comparisons return masks
// encoded as I with every bit of a lane set (-1) for true and clear for false.
//
// Kernels are written once against this interface and instantiated per width,
// so a new backend only has to satisfy this surface to run every node.
type Backend[F, I any] interface {
	Level() Level
	Width() int

	// Loads and stores touch min(len(slice), Width()) lanes. Missing lanes
	// load as zero.
	LoadF(src []float32) F
	StoreF(dst []float32, v F)
	LoadI(src []int32) I
	StoreI(dst []int32, v I)
	LaneF(v F, lane int) float32
	LaneI(v I, lane int) int32

	ZeroF() F
	ZeroI() I
	BroadcastF(x float32) F
	BroadcastI(x int32) I
	// IncrementedF returns {0, 1, 2, ...}.
	IncrementedF() F
	IncrementedI() I

	// CastFI and CastIF reinterpret bits; ConvertFI rounds to nearest and
	// ConvertIF converts numerically.
	CastFI(v F) I
	CastIF(v I) F
	ConvertFI(v F) I
	ConvertIF(v I) F

	AddF(a, b F) F
	SubF(a, b F) F
	MulF(a, b F) F
	DivF(a, b F) F
	NegF(a F) F
	AddI(a, b I) I
	SubI(a, b I) I
	MulI(a, b I) I

	EqF(a, b F) I
	NeF(a, b F) I
	LtF(a, b F) I
	LeF(a, b F) I
	GtF(a, b F) I
	GeF(a, b F) I
	EqI(a, b I) I
	LtI(a, b I) I
	GtI(a, b I) I

	// SelectF returns a where m is set, b elsewhere.
	SelectF(m I, a, b F) F
	SelectI(m I, a, b I) I

	MinF(a, b F) F
	MaxF(a, b F) F
	MinI(a, b I) I
	MaxI(a, b I) I

	AndI(a, b I) I
	OrI(a, b I) I
	XorI(a, b I) I
	NotI(a I) I
	// AndNotI computes a & ^b.
	AndNotI(a, b I) I
	AndF(a, b F) F
	OrF(a, b F) F
	XorF(a, b F) F
	AndNotF(a, b F) F

	ShlI(a I, n uint) I
	// ShrI is a logical shift, SarI an arithmetic one.
	ShrI(a I, n uint) I
	SarI(a I, n uint) I

	AbsF(a F) F
	SqrtF(a F) F
	InvSqrtF(a F) F
	ReciprocalF(a F) F
	FloorF(a F) F
	CeilF(a F) F
	RoundF(a F) F

	// Masked ops apply b only in lanes where m is set; NMasked ops only where
	// it is clear.
	MaskedAddF(m I, a, b F) F
	MaskedSubF(m I, a, b F) F
	MaskedMulF(m I, a, b F) F
	NMaskedAddF(m I, a, b F) F
	NMaskedSubF(m I, a, b F) F
	NMaskedMulF(m I, a, b F) F
	MaskedAddI(m I, a, b I) I
	MaskedSubI(m I, a, b I) I
	MaskedMulI(m I, a, b I) I
	NMaskedAddI(m I, a, b I) I
	NMaskedSubI(m I, a, b I) I
	NMaskedMulI(m I, a, b I) I
	MaskedIncrementI(m I, a I) I
	MaskedDecrementI(m I, a I) I

	// FMulAdd computes a*b + c and FNMulAdd computes -(a*b) + c.
	FMulAdd(a, b, c F) F
	FNMulAdd(a, b, c F) F
}

// Vector types for each supported width.
type (
	F32x1  [1]float32
	F32x4  [4]float32
	F32x8  [8]float32
	F32x16 [16]float32

	I32x1  [1]int32
	I32x4  [4]int32
	I32x8  [8]int32
	I32x16 [16]int32
)

// FloatLanes is satisfied by the float vector types.
type FloatLanes interface {
	~[1]float32 | ~[4]float32 | ~[8]float32 | ~[16]float32
}

// IntLanes is satisfied by the int vector types.
type IntLanes interface {
	~[1]int32 | ~[4]int32 | ~[8]int32 | ~[16]int32
}

// MaxWidth is the widest lane count of any level.
const MaxWidth = 16
