package template

import (
	"github.com/shopspring/decimal"
)

// MaxSegments is the largest number of segments a precedence value can
// represent.
const MaxSegments = 28

// ComputeInbound returns the precedence used to order templates for
// request matching. Lower values are tried first.
//
// Each segment contributes one digit, the first segment being the most
// significant:
//
//	1  literal, or a parameter whose required value is not empty
//	2  segment with more than one part
//	3  constrained parameter
//	4  parameter
//	5  constrained optional parameter
//	6  optional parameter
//	7  constrained catch-all parameter
//	8  catch-all parameter
func ComputeInbound(t *Template) (decimal.Decimal, error) {
	return compute(t, func(s Segment) int {
		return inboundDigit(t, s)
	})
}

// ComputeOutbound returns the precedence used to order templates for link
// generation. Higher values are tried first.
//
// Digits per segment:
//
//	8  literal
//	7  segment with more than one part
//	6  constrained parameter
//	5  parameter
//	4  constrained optional parameter
//	3  optional parameter
//	2  constrained catch-all parameter
//	1  catch-all parameter
func ComputeOutbound(t *Template) (decimal.Decimal, error) {
	return compute(t, outboundDigit)
}

func compute(t *Template, digit func(Segment) int) (decimal.Decimal, error) {
	if len(t.segments) > MaxSegments {
		return decimal.Zero, ErrTooManySegments
	}

	precedence := decimal.Zero
	for i, segment := range t.segments {
		precedence = precedence.Add(decimal.New(int64(digit(segment)), int32(-i)))
	}
	return precedence, nil
}

func inboundDigit(t *Template, s Segment) int {
	if len(s.parts) > 1 {
		return 2
	}

	part := s.parts[0]
	if part.IsLiteral() || part.IsSeparator() {
		return 1
	}

	if req, ok := t.requiredValues.Lookup(part.name); ok && !ValuesEqual(req, "") {
		return 1
	}

	digit := 4
	switch part.paramKind {
	case ParameterOptional:
		digit = 6
	case ParameterCatchAll:
		digit = 8
	}
	if len(part.policies) > 0 {
		digit--
	}
	return digit
}

func outboundDigit(s Segment) int {
	if len(s.parts) > 1 {
		return 7
	}

	part := s.parts[0]
	if part.IsLiteral() || part.IsSeparator() {
		return 8
	}

	digit := 5
	switch part.paramKind {
	case ParameterOptional:
		digit = 3
	case ParameterCatchAll:
		digit = 1
	}
	if len(part.policies) > 0 {
		digit++
	}
	return digit
}
