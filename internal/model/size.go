package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// SizeUnit 面积单位
type SizeUnit string

const (
	UnitSquareChi   SizeUnit = "平方尺" // 计价单位
	UnitSquareMetre SizeUnit = "平方米"
)

// 1 米 = 3 尺
var squareChiPerSquareMetre = decimal.NewFromInt(9)

var (
	ErrInvalidSize = errors.New("作品尺寸格式错误，应为 数字+单位，例如 3平方尺")

	sizeWithUnitPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(平方尺|平方米)`)
	bareNumberPattern   = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// Size 作品尺寸（面积）
type Size struct {
	Value decimal.Decimal
	Unit  SizeUnit
}

// ParseSize 解析自由文本尺寸，如 "3平方尺"、"1.5 平方米"、"4"
// 不带单位的纯数字按平方尺处理
func ParseSize(raw string) (Size, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Size{}, ErrInvalidSize
	}

	var numText string
	unit := UnitSquareChi
	if m := sizeWithUnitPattern.FindStringSubmatch(text); m != nil {
		numText = m[1]
		unit = SizeUnit(m[2])
	} else if bareNumberPattern.MatchString(text) {
		numText = text
	} else {
		return Size{}, ErrInvalidSize
	}

	value, err := decimal.NewFromString(numText)
	if err != nil {
		return Size{}, fmt.Errorf("%w: %v", ErrInvalidSize, err)
	}
	if !value.IsPositive() {
		return Size{}, ErrInvalidSize
	}

	return Size{Value: value, Unit: unit}, nil
}

// Area 换算成平方尺后的面积
func (s Size) Area() decimal.Decimal {
	switch s.Unit {
	case UnitSquareMetre:
		return s.Value.Mul(squareChiPerSquareMetre)
	default:
		return s.Value
	}
}

func (s Size) String() string {
	return s.Value.String() + string(s.Unit)
}
