// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package build

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"gitlab.com/accumulatenetwork/nearbatch/pkg/client/signing"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

// NearPrecision is the number of decimal places of one NEAR in yocto.
const NearPrecision = 24

type Errors []error

func (e Errors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var errs []string
	for _, e := range e {
		errs = append(errs, e.Error())
	}
	return strings.Join(errs, "; ")
}

func (e Errors) Unwrap() []error { return e }

type parser struct {
	errs []error
}

func (p *parser) ok() bool {
	return len(p.errs) == 0
}

func (p *parser) err() error {
	switch len(p.errs) {
	case 0:
		return nil
	case 1:
		return p.errs[0]
	default:
		return Errors(p.errs)
	}
}

func (p *parser) record(err ...error) {
	errs := make([]error, 0, len(p.errs)+len(err))
	errs = append(errs, p.errs...)
	errs = append(errs, err...)
	p.errs = errs
}

func (p *parser) errorf(format string, args ...interface{}) {
	p.record(errors.ValidationError.Skip(1).WithFormat(format, args...))
}

func (p *parser) parseAccount(field string, v any) protocol.AccountID {
	var id protocol.AccountID
	switch v := v.(type) {
	case protocol.AccountID:
		id = v
	case string:
		id = protocol.AccountID(v)
	case fmt.Stringer:
		id = protocol.AccountID(v.String())
	default:
		p.errorf("%s: cannot convert %T to an account ID", field, v)
		return ""
	}
	return id
}

func (p *parser) parsePublicKey(v any) protocol.PublicKey {
	switch v := v.(type) {
	case protocol.PublicKey:
		return v
	case *protocol.PublicKey:
		return *v
	case ed25519.PublicKey:
		pk, err := protocol.PublicKeyFromEd25519(v)
		if err != nil {
			p.errorf("public key: %w", err)
		}
		return pk
	case signing.Signer:
		pk, err := v.PublicKey()
		if err != nil {
			p.errorf("public key: %w", err)
		}
		return pk
	case string:
		pk, err := protocol.ParsePublicKey(v)
		if err != nil {
			p.errorf("public key: %w", err)
		}
		return pk
	default:
		p.errorf("public key: cannot convert %T to a public key", v)
		return protocol.PublicKey{}
	}
}

func (p *parser) parseHash(v any) protocol.Hash {
	switch v := v.(type) {
	case protocol.Hash:
		return v
	case [32]byte:
		return v
	case []byte:
		if len(v) != 32 {
			p.errorf("block hash: invalid length: want 32, got %d", len(v))
			return protocol.Hash{}
		}
		return protocol.Hash(v)
	case string:
		h, err := protocol.ParseHash(v)
		if err != nil {
			p.errorf("block hash: %w", err)
		}
		return h
	default:
		p.errorf("block hash: cannot convert %T to a hash", v)
		return protocol.Hash{}
	}
}

// parseArgs converts function call arguments to bytes. Byte slices, strings,
// and raw JSON are used as is; anything else is marshalled as JSON.
func (p *parser) parseArgs(v any) []byte {
	switch v := v.(type) {
	case nil:
		return nil
	case []byte:
		return v
	case json.RawMessage:
		return v
	case string:
		return []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			p.errorf("args: %w", err)
			return nil
		}
		return b
	}
}

// parseAmount converts v to yocto. Integers are taken as yocto. Strings are
// decimal NEAR amounts, so "0.25" is a quarter of a NEAR.
func (p *parser) parseAmount(field string, v any) *big.Int {
	switch v := v.(type) {
	case nil:
		return nil
	case *big.Int:
		return v
	case big.Int:
		return &v

	case int:
		return big.NewInt(int64(v))
	case int64:
		return big.NewInt(v)
	case uint:
		return new(big.Int).SetUint64(uint64(v))
	case uint64:
		return new(big.Int).SetUint64(v)

	case string:
		parts := strings.Split(v, ".")
		if len(parts) > 2 {
			p.errorf("%s: invalid number: %q", field, v)
			return nil
		}
		x := new(big.Int)
		if _, ok := x.SetString(parts[0], 10); !ok {
			p.errorf("%s: invalid number: %q", field, v)
			return nil
		}
		intexp(x, NearPrecision)
		if len(parts) == 1 {
			return x
		}

		fpart := parts[1]
		if len(fpart) > NearPrecision {
			p.errorf("%s: too many decimal places: %q", field, v)
			return nil
		}
		fpart += strings.Repeat("0", NearPrecision-len(fpart))
		y := new(big.Int)
		if _, ok := y.SetString(fpart, 10); !ok {
			p.errorf("%s: invalid number: %q", field, v)
			return nil
		}
		if x.Sign() < 0 || strings.HasPrefix(parts[0], "-") {
			return x.Sub(x, y)
		}
		return x.Add(x, y)

	default:
		p.errorf("%s: cannot convert %T to an amount", field, v)
		return nil
	}
}

func intexp(x *big.Int, precision uint64) *big.Int {
	y := big.NewInt(10)
	y.Exp(y, big.NewInt(int64(precision)), nil)
	return x.Mul(x, y)
}

func (p *parser) parseUint(field string, v any) uint64 {
	switch v := v.(type) {
	case int:
		if v < 0 {
			p.errorf("%s: negative value %d", field, v)
			return 0
		}
		return uint64(v)
	case int64:
		if v < 0 {
			p.errorf("%s: negative value %d", field, v)
			return 0
		}
		return uint64(v)
	case uint:
		return uint64(v)
	case uint32:
		return uint64(v)
	case uint64:
		return v //nolint:unconvert

	case string:
		u, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			p.errorf("%s: not a number: %w", field, err)
		}
		return u

	default:
		p.errorf("%s: cannot convert %T to a number", field, v)
		return 0
	}
}
