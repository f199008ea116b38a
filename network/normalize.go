package network

import "strings"

// labels maps lowercase exchange-specific network labels
// to their canonical network symbol
var labels = map[string]string{
	"ethereum":            "ETH",
	"ethereum eth":        "ETH",
	"erc20":               "ETH",
	"polygon":             "MATIC",
	"polygon pos":         "MATIC",
	"polygon(bridged)":    "MATIC",
	"binance smart chain": "BSC",
	"bsc (bep20)":         "BSC",
	"bnb smart chain":     "BSC",
	"bep20":               "BSC",
	"bnb (bep2)":          "BNB",
	"avalanche":           "AVAX",
	"avalanche-c":         "AVAX",
	"avax-c chain":        "AVAX",
	"avaxc":               "AVAX",
	"cavax":               "AVAX",
	"arbitrum one":        "ARBITRUM",
	"arbitrum nova":       "ARBITRUM",
	"optimism":            "OPTIMISM",
	"op mainnet":          "OPTIMISM",
	"solana":              "SOL",
	"solana sol":          "SOL",
	"sol":                 "SOL",
	"tron":                "TRX",
	"trc20":               "TRX",
	"dogecoin":            "DOGE",
	"litecoin":            "LTC",
	"ripple":              "XRP",
	"stellar lumens":      "XLM",
	"stellar":             "XLM",
	"filecoin":            "FIL",
	"polkadot":            "DOT",
	"cardano":             "ADA",
	"casper":              "CSPR",
	"mantle network":      "MANTLE",
	"mantle mainnet":      "MANTLE",
	"zk sync lite":        "ZKSYNC",
	"zk sync era":         "ZKSYNC",
	"zeta chain":          "ZETA",
	"zeta chain evm":      "ZETA",
	"celeo":               "CELO",
	"terra":               "TERRA",
	"terra classic":       "LUNC",
	"base mainnet":        "BASE",
	"starknet":            "STARK",
	"kaspa":               "KAS",
	"kaspa kaspa":         "KAS",
	"kas":                 "KAS",
	"kava":                "KAVA",
	"sui":                 "SUI",
	"scroll":              "SCROLL",
	"blast":               "BLAST",
	"moonbeam":            "GLMR",
	"kadena":              "KDA",
	"one":                 "ONE",
	"waves":               "WAVES",
	"theta":               "THETA",
	"xdc":                 "XDC",
	"xec":                 "XEC",
	"xym":                 "XYM",
	"zil":                 "ZIL",
	"qtum":                "QTUM",
	"ravencoin":           "RVN",
	"pokt":                "POKT",
	"secretnetwork":       "SCRT",
	"nibi":                "NIBI",
	"icp":                 "ICP",
	"icx":                 "ICX",
	"ftm":                 "FTM",
	"egl":                 "EGLD",
	"elrond":              "EGLD",
	"linea":               "LINEA",
	"mode":                "MODE",
	"oasis":               "OAS",
	"venom":               "VENOM",
	"vision":              "VIC",
	"ethw":                "ETHW",
	"ethf":                "ETHF",
	"chiliz chain":        "CHZ", // shared by the fan tokens (ACM, AFC, CITY, PSG...)
	"brc20 - unisat":      "BRC20",
}

// Normalize maps an exchange-specific network label (ex. "ERC20")
// to its canonical network symbol (ex. "ETH").
// Matching is case-insensitive, and unknown labels are returned unchanged
func Normalize(label string) string {
	canonical, ok := labels[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return label
	}

	return canonical
}
