package cff

// dictOperator values, following 5176.CFF.pdf Table 9/10/23; b1==0 means a
// 1-byte operator, b1!=0 means the 2-byte (escape 12) form.
type dictKey struct {
	b0, b1 byte
}

var (
	opCharset       = dictKey{15, 0}
	opEncoding      = dictKey{16, 0}
	opCharStrings   = dictKey{17, 0}
	opPrivate       = dictKey{18, 0}
	opFontMatrix    = dictKey{12, 7}
	opROS           = dictKey{12, 30}
	opFDArray       = dictKey{12, 36}
	opFDSelect      = dictKey{12, 37}
	opCharstringType = dictKey{12, 6}

	opSubrs         = dictKey{19, 0}
	opDefaultWidthX = dictKey{20, 0}
	opNominalWidthX = dictKey{21, 0}

	opBlueValues      = dictKey{6, 0}
	opOtherBlues      = dictKey{7, 0}
	opStdHW           = dictKey{10, 0}
	opStdVW           = dictKey{11, 0}
	opBlueScale       = dictKey{12, 9}
	opBlueFuzz        = dictKey{12, 11}
	opStemSnapH       = dictKey{12, 12}
	opStemSnapV       = dictKey{12, 13}
)

// dict is a decoded DICT: operator -> operand list (numeric; CFF DICTs
// never carry strings as operands, only SIDs).
type dict map[dictKey][]float64

func parseDict(b []byte) dict {
	d := make(dict)
	var operands []float64
	for len(b) > 0 {
		b0 := b[0]
		if b0 <= 21 {
			key := dictKey{b0, 0}
			n := 1
			if b0 == 12 {
				if len(b) < 2 {
					break
				}
				key = dictKey{12, b[1]}
				n = 2
			}
			d[key] = operands
			operands = nil
			b = b[n:]
			continue
		}
		v, _, _, n, ok := parseNumber(b)
		if !ok {
			break
		}
		operands = append(operands, v)
		b = b[n:]
	}
	return d
}

func (d dict) int(k dictKey, def int) int {
	v, ok := d[k]
	if !ok || len(v) == 0 {
		return def
	}
	return int(v[0])
}

func (d dict) ints2(k dictKey) (a, b int, ok bool) {
	v, present := d[k]
	if !present || len(v) < 2 {
		return 0, 0, false
	}
	return int(v[0]), int(v[1]), true
}

func (d dict) float(k dictKey, def float64) float64 {
	v, ok := d[k]
	if !ok || len(v) == 0 {
		return def
	}
	return v[0]
}

// floats returns k's full operand list, or nil if absent, for array-valued
// DICT entries like BlueValues/StemSnapH.
func (d dict) floats(k dictKey) []float64 { return d[k] }
