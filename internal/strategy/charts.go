package strategy

// Basic strategy charts. Columns are the dealer upcard 2 3 4 5 6 7 8 9 10 A.

var basicHardRows = []string{
	"HHHHHHHHHH", // 5
	"HHHHHHHHHH", // 6
	"HHHHHHHHHH", // 7
	"HHHHHHHHHH", // 8
	"HDDDDHHHHH", // 9
	"DDDDDDDDHH", // 10
	"DDDDDDDDDH", // 11
	"HHSSSHHHHH", // 12
	"SSSSSHHHHH", // 13
	"SSSSSHHHHH", // 14
	"SSSSSHHHHH", // 15
	"SSSSSHHHHH", // 16
	"SSSSSSSSSS", // 17
	"SSSSSSSSSS", // 18
	"SSSSSSSSSS", // 19
	"SSSSSSSSSS", // 20
	"SSSSSSSSSS", // 21
}

var basicSoftRows = []string{
	"HHHDDHHHHH", // A,2
	"HHHDDHHHHH", // A,3
	"HHDDDHHHHH", // A,4
	"HHDDDHHHHH", // A,5
	"HDDDDHHHHH", // A,6
	"SDDDDSSHHH", // A,7
	"SSSSSSSSSS", // A,8
	"SSSSSSSSSS", // A,9
}

// Pair rows only matter where they say P; anything else falls through to the
// soft or hard chart.
var basicPairRows = []string{
	"PPPPPPHHHH", // 2,2
	"PPPPPPHHHH", // 3,3
	"HHHPPHHHHH", // 4,4
	"SSSSSSSSSS", // 5,5
	"PPPPPHHHHH", // 6,6
	"PPPPPPHHHH", // 7,7
	"PPPPPPPPPP", // 8,8
	"PPPPPSPPSS", // 9,9
	"SSSSSSSSSS", // 10,10
	"PPPPPPPPPP", // A,A
}

// Chart domains
const (
	HardMin = 5
	HardMax = 21
	SoftMin = 13
	SoftMax = 20
	PairMin = 2
	PairMax = 11
)

// BasicTables returns freshly built basic strategy charts
func BasicTables() Tables {
	return Tables{
		Hard:  MustChart("hard", HardMin, basicHardRows...),
		Soft:  MustChart("soft", SoftMin, basicSoftRows...),
		Pairs: MustChart("pairs", PairMin, basicPairRows...),
	}
}
