package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rpgo/finsim/internal/tax"
	"github.com/shopspring/decimal"
)

// print_rmd prints the required distribution schedule for a birth year and
// a flat balance: print_rmd [birth-year] [balance]
func main() {
	birthYear := 1955
	balance := decimal.NewFromInt(500000)
	if len(os.Args) > 1 {
		y, err := strconv.Atoi(os.Args[1])
		if err != nil {
			panic(err)
		}
		birthYear = y
	}
	if len(os.Args) > 2 {
		b, err := decimal.NewFromString(os.Args[2])
		if err != nil {
			panic(err)
		}
		balance = b
	}

	rmd := tax.NewRMDCalculator(birthYear)
	fmt.Printf("Birth year %d: RMDs start at %d\n", birthYear, rmd.StartAge())
	fmt.Println("Age,Required,Rate")
	for age := rmd.StartAge() - 1; age <= 120; age++ {
		req := rmd.RequiredDistribution(balance, age)
		rate := decimal.Zero
		if balance.IsPositive() {
			rate = req.Div(balance).Mul(decimal.NewFromInt(100))
		}
		fmt.Printf("%d,%s,%s%%\n", age, req.StringFixed(2), rate.StringFixed(2))
	}
}
