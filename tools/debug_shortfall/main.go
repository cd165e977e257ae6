package main

import (
	"fmt"
	"os"

	"github.com/rpgo/finsim/internal/analysis"
	calc "github.com/rpgo/finsim/internal/calculation"
	"github.com/rpgo/finsim/internal/config"
	"github.com/shopspring/decimal"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: debug_shortfall <config-file>")
		return
	}
	p := config.NewInputParser()
	cfg, err := p.LoadFromFile(os.Args[1])
	if err != nil {
		panic(err)
	}
	res, err := calc.NewCalculationEngine(cfg).RunDeterministic()
	if err != nil {
		panic(err)
	}
	rows, err := analysis.YearlyRows(res)
	if err != nil {
		panic(err)
	}

	fmt.Println("Year,Age,Phase,Portfolio,Income,Expenses,Taxes,Withdrawals,RMDs,Shortfall,CumShortfall")
	cum := decimal.Zero
	for _, r := range rows {
		cum = cum.Add(r.Shortfall)
		fmt.Printf("%d,%.2f,%s,%s,%s,%s,%s,%s,%s,%s,%s\n", r.Year, r.Age, r.Phase,
			r.PortfolioValue.StringFixed(0), r.GrossIncome.StringFixed(0), r.Expenses.StringFixed(0),
			r.Taxes.StringFixed(0), r.Withdrawals.StringFixed(0), r.RMDs.StringFixed(0),
			r.Shortfall.StringFixed(0), cum.StringFixed(0))
	}

	ctx := res.Context
	for _, t := range ctx.PhaseTransitions {
		fmt.Printf("\nTransition: %s -> %s at age %.2f (%s)", t.From, t.To, t.Age, t.Date.Format("2006-01"))
	}
	if ctx.Depleted {
		fmt.Printf("\nDepleted at age %.2f\n", ctx.DepletionAge)
	} else {
		fmt.Printf("\nNo depletion; final portfolio %s\n", res.Data[len(res.Data)-1].Portfolio.TotalValue.StringFixed(2))
	}
}
