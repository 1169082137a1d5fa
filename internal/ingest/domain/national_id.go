package domain

// NationalIDLength is the number of digits of a national identity number.
const NationalIDLength = 11

// WellFormedNationalID reports whether s is exactly eleven ASCII digits.
func WellFormedNationalID(s string) bool {
	if len(s) != NationalIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ValidNationalID checks the two check digits: digit 10 is seven times the
// sum of the odd positions minus the sum of the even positions (1..9), mod 10,
// and digit 11 is the sum of digits 1..10 mod 10. A leading zero is invalid.
func ValidNationalID(s string) bool {
	if !WellFormedNationalID(s) || s[0] == '0' {
		return false
	}

	var d [NationalIDLength]int
	for i := range d {
		d[i] = int(s[i] - '0')
	}

	odd := d[0] + d[2] + d[4] + d[6] + d[8]
	even := d[1] + d[3] + d[5] + d[7]
	if ((odd*7-even)%10+10)%10 != d[9] {
		return false
	}

	sum := 0
	for _, v := range d[:10] {
		sum += v
	}
	return sum%10 == d[10]
}
