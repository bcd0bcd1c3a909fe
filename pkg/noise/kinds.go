package noise

import (
	"fmt"
	"sync"

	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/simd"
)

// Kind identifies a node type. A Kind's value is also its wire id: kinds are
// registered in declaration order and new kinds must only be appended, so
// encoded trees written by older builds keep decoding.
type Kind uint16

const (
	KindConstant Kind = iota
	KindWhite
	KindCheckerboard
	KindSineWave
	KindPositionOutput
	KindDistanceToPoint
	KindValue
	KindPerlin
	KindSimplex
	KindCellularValue
	KindCellularDistance
	KindCellularLookup
	KindFractalFBm
	KindFractalBillow
	KindFractalRidged
	KindFractalRidgedMulti
	KindDomainWarpGradient
	KindDomainWarpFractalProgressive
	KindDomainWarpFractalIndependent
	KindDomainScale
	KindDomainOffset
	KindDomainRotate
	KindDomainAxisScale
	KindSeedOffset
	KindRemap
	KindTerrace
	KindPingPong
	KindAbs
	KindSignedSquareRoot
	KindAdd
	KindSubtract
	KindMultiply
	KindDivide
	KindMin
	KindMax
	KindMinSmooth
	KindMaxSmooth
	KindPowFloat
	KindPowInt
	KindFade

	kindCount
)

// Group names.
const (
	GroupBasic          = "Basic Generators"
	GroupCoherent       = "Coherent Noise"
	GroupFractal        = "Fractal"
	GroupDomainWarp     = "Domain Warp"
	GroupModifiers      = "Modifiers"
	GroupDomainModifier = "Domain Modifiers"
	GroupBlends         = "Blends"
)

var distanceFunctionNames = []string{"Euclidean", "Euclidean Squared", "Manhattan", "Hybrid", "Max Axis"}

const (
	distEuclidean int32 = iota
	distEuclideanSquared
	distManhattan
	distHybrid
	distMaxAxis
	distMinkowski
)

var (
	registryOnce sync.Once
	registry     *metadata.Registry
)

// Registry returns the frozen registry of built-in kinds. It is built on
// first use.
func Registry() *metadata.Registry {
	registryOnce.Do(func() {
		r := metadata.NewRegistry()
		for k := Kind(0); k < kindCount; k++ {
			m := describe(k)
			if id := r.Register(m); id != uint16(k) {
				panic(fmt.Sprintf("noise: %s registered as %d, want %d", m.Name, id, k))
			}
		}
		r.Freeze()
		registry = r
	})
	return registry
}

// MetadataOf returns the descriptor of kind k.
func MetadataOf(k Kind) *metadata.Metadata {
	m, ok := Registry().ByID(uint16(k))
	if !ok {
		panic(fmt.Sprintf("noise: unknown kind %d", k))
	}
	return m
}

func (k Kind) String() string {
	if k < kindCount {
		return MetadataOf(k).Name
	}
	return fmt.Sprintf("Kind(%d)", uint16(k))
}

func creator(k Kind) func(simd.Level) metadata.Node {
	return func(l simd.Level) metadata.Node {
		if n := New(k, l); n != nil {
			return n
		}
		return nil
	}
}

// Shared member blocks. Their order fixes the member indexes the kernels
// switch on.
func scalable(m *metadata.Metadata) *metadata.Metadata {
	return m.FloatVar("Feature Scale", "Size of features in input units; 1 / frequency", 1, 0.001, 1000)
}

func seeded(m *metadata.Metadata) *metadata.Metadata {
	return m.IntVar("Seed Offset", "Offset added to the seed for this node only", 0, 0, 0)
}

func outputRange(m *metadata.Metadata) *metadata.Metadata {
	return m.FloatVar("Output Min", "Output value mapped from -1", -1, 0, 0).
		FloatVar("Output Max", "Output value mapped from 1", 1, 0, 0)
}

func cellular(m *metadata.Metadata) *metadata.Metadata {
	return seeded(scalable(m)).
		EnumVar("Distance Function", "How distance to cell points is measured", distEuclideanSquared, distanceFunctionNames...).
		HybridSlot("Jitter Modifier", "How far cell points may move from the cell centre", 1)
}

func fractalMembers(m *metadata.Metadata) *metadata.Metadata {
	return m.FloatVar("Gain", "Amplitude multiplier per octave", 0.5, 0, 1).
		IntVar("Octaves", "Number of source samples combined", 3, 1, maxOctaves).
		FloatVar("Lacunarity", "Frequency multiplier per octave", 2, 0, 8)
}

func describe(k Kind) *metadata.Metadata {
	m := metadata.New(kindNames[k], creator(k))
	switch k {
	case KindConstant:
		return m.Group(GroupBasic).
			FloatVar("Value", "Constant output", 1, 0, 0).
			Describe("Outputs a constant value")
	case KindWhite:
		return outputRange(seeded(m.Group(GroupBasic))).
			Describe("White noise: an uncorrelated random value per input position")
	case KindCheckerboard:
		return outputRange(scalable(m.Group(GroupBasic))).
			Describe("Alternates between the output bounds in unit-sized cells")
	case KindSineWave:
		return outputRange(scalable(m.Group(GroupBasic))).
			Describe("Average of a sine wave along each axis")
	case KindPositionOutput:
		return m.Group(GroupBasic).
			PerDimensionFloatVar("Multiplier", "Scale applied to the axis position", 0).
			PerDimensionHybridSlot("Offset", "Offset added to the axis position before scaling", 0).
			Describe("Sum of each axis position plus offset, times its multiplier")
	case KindDistanceToPoint:
		return m.Group(GroupBasic).
			EnumVar("Distance Function", "How distance is measured", distEuclidean, append(distanceFunctionNames, "Minkowski")...).
			PerDimensionHybridSlot("Point", "Point in the current domain", 0).
			HybridSlot("Minkowski P", "Exponent of the Minkowski distance; 1 is Manhattan, 2 Euclidean", 1.5).
			Describe("Distance from the input position to a point")
	case KindValue:
		return outputRange(seeded(scalable(m.Group(GroupCoherent)))).
			Describe("Smoothly interpolated random values on an integer lattice")
	case KindPerlin:
		return outputRange(seeded(scalable(m.Group(GroupCoherent)))).
			Describe("Gradient noise on a square lattice")
	case KindSimplex:
		return outputRange(seeded(scalable(m.Group(GroupCoherent)))).
			Describe("Gradient noise on a simplex lattice")
	case KindCellularValue:
		return cellular(m.Group(GroupCoherent)).
			IntVar("Value Index", "Which nearest cell's value to output, 0 is the closest", 0, 0, 2).
			Describe("Random value of the n-th nearest cell point")
	case KindCellularDistance:
		return cellular(m.Group(GroupCoherent)).
			IntVar("Distance Index 0", "First distance to combine, 0 is the closest", 0, 0, 3).
			IntVar("Distance Index 1", "Second distance to combine", 1, 0, 3).
			EnumVar("Return Type", "How the two distances are combined", 0,
				"Index0", "Index0Add1", "Index0Sub1", "Index0Mul1", "Index0Div1").
			Describe("Distance to the n-th nearest cell point")
	case KindCellularLookup:
		return cellular(m.Group(GroupCoherent)).
			SourceSlot("Lookup", "Node sampled at the nearest cell point", "").
			FloatVar("Lookup Frequency", "Scale applied to the cell point before sampling", 0.1, 0, 0).
			Describe("Samples the lookup node at the nearest cell point")
	case KindFractalFBm:
		return fractalMembers(m.Group(GroupFractal).SourceSlot("Source", "", "")).
			Describe("Fractional Brownian motion: octaves of the source summed with decreasing amplitude")
	case KindFractalBillow:
		return fractalMembers(m.Group(GroupFractal).SourceSlot("Source", "", "")).
			Describe("Sum of octaves of |source|, giving billowy features")
	case KindFractalRidged:
		return fractalMembers(m.Group(GroupFractal).SourceSlot("Source", "", "")).
			Describe("Sum of octaves of 1 - |source|, giving sharp ridges")
	case KindFractalRidgedMulti:
		return fractalMembers(m.Group(GroupFractal).SourceSlot("Source", "", "")).
			FloatVar("Weight Amplitude", "Divisor applied to each successive octave's weight", 2, 1, 8).
			Describe("Multifractal ridges where each octave is weighted by the previous one")
	case KindDomainWarpGradient:
		return seeded(m.Group(GroupDomainWarp).SourceSlot("Source", "", "")).
			FloatVar("Warp Amplitude", "Maximum distance a position is moved", 1, 0, 0).
			FloatVar("Warp Frequency", "Frequency of the warp field", 0.5, 0, 0).
			Describe("Moves the input position along an interpolated random vector field")
	case KindDomainWarpFractalProgressive:
		return fractalMembers(m.Group(GroupFractal).SourceSlot("Domain Warp Source", "Warp applied per octave", GroupDomainWarp)).
			Describe("Applies the domain warp once per octave, each octave warping the result of the previous one")
	case KindDomainWarpFractalIndependent:
		return fractalMembers(m.Group(GroupFractal).SourceSlot("Domain Warp Source", "Warp applied per octave", GroupDomainWarp)).
			Describe("Applies the domain warp once per octave from the original position and sums the offsets")
	case KindDomainScale:
		return m.Group(GroupDomainModifier).
			SourceSlot("Source", "", "").
			FloatVar("Scaling", "Multiplier applied to every axis", 1, 0, 0).
			Describe("Scales the input position")
	case KindDomainOffset:
		return m.Group(GroupDomainModifier).
			SourceSlot("Source", "", "").
			PerDimensionHybridSlot("Offset", "Offset added to the axis", 0).
			Describe("Offsets the input position")
	case KindDomainRotate:
		return m.Group(GroupDomainModifier).
			SourceSlot("Source", "", "").
			FloatVar("Yaw", "Degrees", 0, -180, 180).
			FloatVar("Pitch", "Degrees", 0, -180, 180).
			FloatVar("Roll", "Degrees", 0, -180, 180).
			Describe("Rotates the input position; 2D input is rotated in 3D")
	case KindDomainAxisScale:
		return m.Group(GroupDomainModifier).
			SourceSlot("Source", "", "").
			PerDimensionFloatVar("Scaling", "Multiplier applied to the axis", 1).
			Describe("Scales each axis of the input position independently")
	case KindSeedOffset:
		return m.Group(GroupModifiers).
			SourceSlot("Source", "", "").
			IntVar("Seed Offset", "Added to the seed passed to the source", 1, 0, 0).
			Describe("Offsets the seed")
	case KindRemap:
		return m.Group(GroupModifiers).
			SourceSlot("Source", "", "").
			HybridSlot("From Min", "", -1).
			HybridSlot("From Max", "", 1).
			HybridSlot("To Min", "", 0).
			HybridSlot("To Max", "", 1).
			EnumVar("Clamp Output", "Clamp output between To Min and To Max", 0, "False", "True").
			Describe("Linearly maps the source from one range to another")
	case KindTerrace:
		return m.Group(GroupModifiers).
			SourceSlot("Source", "", "").
			FloatVar("Step Count", "Number of steps per unit of output", 1, 0, 0).
			HybridSlot("Smoothness", "0 gives hard steps, 1 leaves the source unchanged", 0).
			Describe("Quantizes the source into steps")
	case KindPingPong:
		return m.Group(GroupModifiers).
			SourceSlot("Source", "", "").
			HybridSlot("Ping Pong Strength", "How many times the output folds back", 2).
			Describe("Folds the source back and forth within -1..1")
	case KindAbs:
		return m.Group(GroupModifiers).
			SourceSlot("Source", "", "").
			Describe("Absolute value of the source")
	case KindSignedSquareRoot:
		return m.Group(GroupModifiers).
			SourceSlot("Source", "", "").
			Describe("Square root of |source| with the sign of the source")
	case KindAdd, KindMultiply, KindMin, KindMax:
		return m.Group(GroupBlends).
			SourceSlot("LHS", "", "").
			HybridSlot("RHS", "", 0).
			Describe(blendDescriptions[k])
	case KindSubtract, KindDivide:
		return m.Group(GroupBlends).
			HybridSlot("LHS", "", 0).
			HybridSlot("RHS", "", 0).
			Describe(blendDescriptions[k])
	case KindMinSmooth, KindMaxSmooth:
		return m.Group(GroupBlends).
			SourceSlot("LHS", "", "").
			HybridSlot("RHS", "", 0).
			HybridSlot("Smoothness", "Width of the blended region", 0.1).
			Describe(blendDescriptions[k])
	case KindPowFloat:
		return m.Group(GroupBlends).
			HybridSlot("Value", "", 2).
			HybridSlot("Pow", "", 2).
			Describe("|Value| raised to Pow")
	case KindPowInt:
		return m.Group(GroupBlends).
			SourceSlot("Value", "", "").
			IntVar("Pow", "", 2, 1, 16).
			Describe("Value raised to an integer power")
	case KindFade:
		return m.Group(GroupBlends).
			SourceSlot("A", "From", "").
			SourceSlot("B", "To", "").
			HybridSlot("Fade", "-1 outputs A, 1 outputs B", 0).
			Describe("Linear blend between A and B")
	}
	panic(fmt.Sprintf("noise: no description for kind %d", k))
}

var kindNames = [kindCount]string{
	KindConstant:                     "Constant",
	KindWhite:                        "White",
	KindCheckerboard:                 "Checkerboard",
	KindSineWave:                     "SineWave",
	KindPositionOutput:               "PositionOutput",
	KindDistanceToPoint:              "DistanceToPoint",
	KindValue:                        "Value",
	KindPerlin:                       "Perlin",
	KindSimplex:                      "Simplex",
	KindCellularValue:                "CellularValue",
	KindCellularDistance:             "CellularDistance",
	KindCellularLookup:               "CellularLookup",
	KindFractalFBm:                   "FractalFBm",
	KindFractalBillow:                "FractalBillow",
	KindFractalRidged:                "FractalRidged",
	KindFractalRidgedMulti:           "FractalRidgedMulti",
	KindDomainWarpGradient:           "DomainWarpGradient",
	KindDomainWarpFractalProgressive: "DomainWarpFractalProgressive",
	KindDomainWarpFractalIndependent: "DomainWarpFractalIndependent",
	KindDomainScale:                  "DomainScale",
	KindDomainOffset:                 "DomainOffset",
	KindDomainRotate:                 "DomainRotate",
	KindDomainAxisScale:              "DomainAxisScale",
	KindSeedOffset:                   "SeedOffset",
	KindRemap:                        "Remap",
	KindTerrace:                      "Terrace",
	KindPingPong:                     "PingPong",
	KindAbs:                          "Abs",
	KindSignedSquareRoot:             "SignedSquareRoot",
	KindAdd:                          "Add",
	KindSubtract:                     "Subtract",
	KindMultiply:                     "Multiply",
	KindDivide:                       "Divide",
	KindMin:                          "Min",
	KindMax:                          "Max",
	KindMinSmooth:                    "MinSmooth",
	KindMaxSmooth:                    "MaxSmooth",
	KindPowFloat:                     "PowFloat",
	KindPowInt:                       "PowInt",
	KindFade:                         "Fade",
}

var blendDescriptions = map[Kind]string{
	KindAdd:       "LHS + RHS",
	KindSubtract:  "LHS - RHS",
	KindMultiply:  "LHS * RHS",
	KindDivide:    "LHS / RHS",
	KindMin:       "Smaller of LHS and RHS",
	KindMax:       "Larger of LHS and RHS",
	KindMinSmooth: "Smooth minimum of LHS and RHS",
	KindMaxSmooth: "Smooth maximum of LHS and RHS",
}
