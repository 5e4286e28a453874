package commands

import (
	"errors"
	"strconv"
	"strings"

	"teahouse.bot/internal/teahouse/model"
)

var (
	errTooFewArgs = errors.New("too few arguments")
	errBadNumber  = errors.New("bad number")
)

// teaNameEndings are the words a multi-word tea name usually ends with.
var teaNameEndings = []string{"茶", "清茶", "绿茶", "红茶", "乌龙茶", "白茶", "黑茶", "花茶", "奶茶"}

// parseListing reads "<name> <stock> <type> <price> <description...>". The
// name may span several words when it ends with a tea word and enough
// fields remain after it. Labels such as "库存" in front of a value are
// dropped.
func parseListing(arg string) (model.Tea, error) {
	parts := strings.Fields(arg)
	if len(parts) < 5 {
		return model.Tea{}, errTooFewArgs
	}
	nameLen := 1
	if !hasTeaEnding(parts[0]) {
		for n := 2; len(parts)-n >= 4; n++ {
			if hasTeaEnding(strings.Join(parts[:n], " ")) {
				nameLen = n
				break
			}
		}
	}
	rest := parts[nameLen:]

	name := stripLabel(strings.Join(parts[:nameLen], " "), "茶叶名称")
	stockStr := stripLabel(rest[0], "库存")
	teaType := stripLabel(rest[1], "类型")
	priceStr := stripLabel(rest[2], "价格")
	desc := stripLabel(strings.Join(rest[3:], " "), "描述")

	stock, err := strconv.Atoi(stockStr)
	if err != nil {
		return model.Tea{}, errBadNumber
	}
	price, err := model.ParseCoins(priceStr)
	if err != nil {
		return model.Tea{}, errBadNumber
	}
	return model.Tea{Name: name, Stock: stock, TeaType: teaType, Price: price, Description: desc}, nil
}

func hasTeaEnding(s string) bool {
	for _, e := range teaNameEndings {
		if strings.HasSuffix(s, e) {
			return true
		}
	}
	return false
}

func stripLabel(s, label string) string {
	s = strings.TrimPrefix(s, label)
	return strings.TrimLeft(s, ":：")
}

// ints parses the first n fields of arg as integers.
func ints(arg string, n int) ([]int, error) {
	fields := strings.Fields(arg)
	if len(fields) < n {
		return nil, errTooFewArgs
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, errBadNumber
		}
		out[i] = v
	}
	return out, nil
}
