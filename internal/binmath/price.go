package binmath

import (
	"github.com/holiman/uint256"

	"binFlow/internal/model"
)

// Price returns the fixed-point price of binID on a curve with the given
// bin step: PRECISION * ((10000+binStep)/10000)^binID. Negative ids are the
// reciprocal of their mirror.
func Price(binID int32, binStep uint16) (*uint256.Int, error) {
	if binStep == 0 {
		return nil, model.ErrInvalidBinStep
	}
	if binID == 0 {
		return Precision(), nil
	}

	exp := uint64(binID)
	if binID < 0 {
		exp = uint64(-int64(binID))
	}
	up, err := pow(binStep, exp)
	if err != nil {
		return nil, err
	}
	if binID > 0 {
		return up, nil
	}

	p := Precision()
	return MulDiv(p, p, up)
}

// pow raises (1 + binStep/10000) to exp by squaring, keeping every
// intermediate at PRECISION scale.
func pow(binStep uint16, exp uint64) (*uint256.Int, error) {
	p := Precision()
	base, err := MulDiv(uint256.NewInt(uint64(BasisPointMax)+uint64(binStep)), p, uint256.NewInt(BasisPointMax))
	if err != nil {
		return nil, err
	}

	res := Precision()
	for exp > 0 {
		if exp&1 == 1 {
			if res, err = MulDiv(res, base, p); err != nil {
				return nil, err
			}
		}
		exp >>= 1
		if exp == 0 {
			break
		}
		if base, err = MulDiv(base, base, p); err != nil {
			return nil, err
		}
	}
	return res, nil
}
