// Package amount 定点小数金额与最小单位整数串之间的转换
//
// 金额在链上以最小单位的任意精度整数表示，展示时按代币/货币的小数位数缩放。
// 全程使用十进制定点运算（shopspring/decimal），不经过二进制浮点。
//
// 舍入规则：四舍五入，.5 远离零方向进位（half away from zero）。
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultRoundTo 默认展示的小数位数
const DefaultRoundTo = 2

var (
	// ErrInvalidAmount 不是合法的非负整数字面量
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidPrecision 小数位数或舍入位数为负
	ErrInvalidPrecision = errors.New("invalid precision")

	// ErrZeroDenominator 比率分母为零
	ErrZeroDenominator = errors.New("zero denominator")
)

// ParseInteger 解析非负十进制整数字面量（仅允许 0-9）
func ParseInteger(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}

// ToDisplayAmount 将最小单位整数串转为保留 roundTo 位小数的展示串
//
// 示例：
//
//	ToDisplayAmount("1500000", 6, 2) → "1.50"
//	ToDisplayAmount("0", 6, 2)       → "0.00"
func ToDisplayAmount(amount string, decimals, roundTo int) (string, error) {
	if decimals < 0 || roundTo < 0 {
		return "", fmt.Errorf("%w: decimals=%d roundTo=%d", ErrInvalidPrecision, decimals, roundTo)
	}
	d, err := scaled(amount, decimals)
	if err != nil {
		return "", err
	}
	return d.StringFixed(int32(roundTo)), nil
}

// ToDisplayRate 计算“每个代币单位对应的货币数量”并按 roundTo 位展示
//
// 分子按 currencyDecimals 缩放，分母按 tokenDecimals 缩放，然后相除并只舍入一次。
func ToDisplayRate(numerator, denominator string, currencyDecimals, tokenDecimals, roundTo int) (string, error) {
	rate, err := NewRate(numerator, denominator)
	if err != nil {
		return "", err
	}
	return rate.Display(currencyDecimals, tokenDecimals, roundTo)
}

// ToIntegerAmount 将用户输入的小数金额转换为最小单位整数串
//
// 小数部分超过 decimals 位（去掉末尾零之后）时返回 ErrInvalidAmount。
func ToIntegerAmount(display string, decimals int) (string, error) {
	if decimals < 0 {
		return "", fmt.Errorf("%w: decimals=%d", ErrInvalidPrecision, decimals)
	}
	display = strings.TrimSpace(display)
	if display == "" || strings.ContainsAny(display, "eE+") {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, display)
	}
	d, err := decimal.NewFromString(display)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if d.IsNegative() {
		return "", fmt.Errorf("%w: negative value %q", ErrInvalidAmount, display)
	}
	units := d.Shift(int32(decimals))
	if !units.Equal(units.Truncate(0)) {
		return "", fmt.Errorf("%w: more than %d fractional digits in %q", ErrInvalidAmount, decimals, display)
	}
	return units.BigInt().String(), nil
}

// Rate 汇率/收益率，分子分母均为任意精度非负整数，分母不为零
type Rate struct {
	Numerator   *big.Int
	Denominator *big.Int
}

// NewRate 从整数字面量构造 Rate
func NewRate(numerator, denominator string) (Rate, error) {
	num, err := ParseInteger(numerator)
	if err != nil {
		return Rate{}, fmt.Errorf("numerator: %w", err)
	}
	den, err := ParseInteger(denominator)
	if err != nil {
		return Rate{}, fmt.Errorf("denominator: %w", err)
	}
	if den.Sign() == 0 {
		return Rate{}, ErrZeroDenominator
	}
	return Rate{Numerator: num, Denominator: den}, nil
}

// Display 按货币/代币各自的小数位缩放后展示比率
func (r Rate) Display(currencyDecimals, tokenDecimals, roundTo int) (string, error) {
	if currencyDecimals < 0 || tokenDecimals < 0 || roundTo < 0 {
		return "", ErrInvalidPrecision
	}
	if r.Numerator == nil || r.Denominator == nil || r.Numerator.Sign() < 0 || r.Denominator.Sign() < 0 {
		return "", ErrInvalidAmount
	}
	if r.Denominator.Sign() == 0 {
		return "", ErrZeroDenominator
	}
	num := decimal.NewFromBigInt(r.Numerator, -int32(currencyDecimals))
	den := decimal.NewFromBigInt(r.Denominator, -int32(tokenDecimals))
	return num.DivRound(den, int32(roundTo)).StringFixed(int32(roundTo)), nil
}

// scaled 按 decimals 在整数右侧插入小数点
func scaled(amount string, decimals int) (decimal.Decimal, error) {
	v, err := ParseInteger(amount)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(v, -int32(decimals)), nil
}
