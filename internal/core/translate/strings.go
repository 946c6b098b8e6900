package translate

import (
	"math"
	"time"

	"github.com/yndnr/yedis-go/internal/core/domain"
)

func parseGet(_ *Translator, args [][]byte) (domain.Request, error) {
	if len(args[1]) == 0 {
		return nil, domain.ErrInvalidCommand.WithDetails("A GET request must have non empty key field")
	}
	return &domain.GetRequest{Key: string(args[1])}, nil
}

func parseSet(_ *Translator, args [][]byte) (domain.Request, error) {
	if len(args[1]) == 0 {
		return nil, domain.ErrInvalidCommand.WithDetails("A SET request must have a non empty key field")
	}
	req := &domain.SetRequest{Key: string(args[1]), Value: args[2]}
	if err := parseSetFlags(req, args[3:]); err != nil {
		return nil, err
	}
	return req, nil
}

// SETEX key seconds value
func parseSetEx(_ *Translator, args [][]byte) (domain.Request, error) {
	return parseSetWithTTL(args, time.Second)
}

// PSETEX key milliseconds value
func parsePSetEx(_ *Translator, args [][]byte) (domain.Request, error) {
	return parseSetWithTTL(args, time.Millisecond)
}

func parseSetWithTTL(args [][]byte, unit time.Duration) (domain.Request, error) {
	if len(args[1]) == 0 {
		return nil, domain.ErrInvalidCommand.WithDetailsf("A %s request must have a non empty key field", args[0])
	}
	ttl, err := parseInt64(args[2], "TTL")
	if err != nil {
		return nil, err
	}
	if ttl < MinTTLSeconds || ttl > MaxTTLSeconds {
		return nil, domain.ErrInvalidCommand.WithDetailsf("TTL field %s is not within valid bounds", args[2])
	}
	return &domain.SetRequest{
		Key:   string(args[1]),
		Value: args[3],
		TTL:   time.Duration(ttl) * unit,
	}, nil
}

func parseSetNX(_ *Translator, args [][]byte) (domain.Request, error) {
	if len(args[1]) == 0 {
		return nil, domain.ErrInvalidCommand.WithDetails("A SETNX request must have a non empty key field")
	}
	return &domain.SetRequest{
		Key:          string(args[1]),
		Value:        args[2],
		Mode:         domain.WriteModeInsert,
		ReplyInteger: true,
	}, nil
}

func parseMGet(_ *Translator, _ [][]byte) (domain.Request, error) {
	return nil, domain.ErrNotSupported.WithDetails("MGET command not yet supported")
}

func parseMSet(_ *Translator, args [][]byte) (domain.Request, error) {
	if len(args)%2 == 0 {
		return nil, domain.ErrInvalidCommand.WithDetailsf(
			"An MSET request must have at least 3, odd number of arguments, found %d", len(args))
	}
	return nil, domain.ErrNotSupported.WithDetails("MSET command not yet supported")
}

func parseGetSet(_ *Translator, args [][]byte) (domain.Request, error) {
	return &domain.GetSetRequest{Key: string(args[1]), Value: args[2]}, nil
}

func parseAppend(_ *Translator, args [][]byte) (domain.Request, error) {
	return &domain.AppendRequest{Key: string(args[1]), Value: args[2]}, nil
}

// Deleting one key per command is supported.
func parseDel(_ *Translator, args [][]byte) (domain.Request, error) {
	if len(args) > 2 {
		return nil, domain.ErrNotSupported.WithDetails("DEL with multiple keys not yet supported")
	}
	return &domain.DeleteRequest{Key: string(args[1])}, nil
}

func parseExists(_ *Translator, args [][]byte) (domain.Request, error) {
	if len(args) > 2 {
		return nil, domain.ErrNotSupported.WithDetails("EXISTS with multiple keys not yet supported")
	}
	return &domain.ExistsRequest{Key: string(args[1])}, nil
}

func parseStrLen(_ *Translator, args [][]byte) (domain.Request, error) {
	return &domain.StrLenRequest{Key: string(args[1])}, nil
}

func parseGetRange(_ *Translator, args [][]byte) (domain.Request, error) {
	start, err := parseInt32(args[2], "Start")
	if err != nil {
		return nil, err
	}
	end, err := parseInt32(args[3], "End")
	if err != nil {
		return nil, err
	}
	return &domain.GetRangeRequest{Key: string(args[1]), Start: start, End: end}, nil
}

func parseSetRange(_ *Translator, args [][]byte) (domain.Request, error) {
	offset, err := parseInt32(args[2], "offset")
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, domain.ErrInvalidArgument.WithDetailsf("offset field of SETRANGE must be non-negative, found: %d", offset)
	}
	return &domain.SetRangeRequest{Key: string(args[1]), Offset: offset, Value: args[3]}, nil
}

func parseIncr(_ *Translator, args [][]byte) (domain.Request, error) {
	return &domain.IncrRequest{Key: string(args[1]), Type: domain.TypeString, Delta: 1}, nil
}

func parseIncrBy(_ *Translator, args [][]byte) (domain.Request, error) {
	delta, err := parseInt64(args[2], "INCR_BY")
	if err != nil {
		return nil, err
	}
	return &domain.IncrRequest{Key: string(args[1]), Type: domain.TypeString, Delta: delta}, nil
}

func parseDecr(_ *Translator, args [][]byte) (domain.Request, error) {
	return &domain.IncrRequest{Key: string(args[1]), Type: domain.TypeString, Delta: -1}, nil
}

func parseDecrBy(_ *Translator, args [][]byte) (domain.Request, error) {
	delta, err := parseInt64(args[2], "DECR_BY")
	if err != nil {
		return nil, err
	}
	if delta == math.MinInt64 {
		return nil, domain.ErrOverflow.WithDetailsf("DECR_BY field %q cannot be negated", args[2])
	}
	return &domain.IncrRequest{Key: string(args[1]), Type: domain.TypeString, Delta: -delta}, nil
}
