package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/loans"
)

func newEMICmd(opts *rootOptions) *cobra.Command {
	var (
		principal string
		rate      string
		tenure    int
	)

	cmd := &cobra.Command{
		Use:     "emi",
		Short:   "Compute the monthly installment for a loan",
		Example: "  fintrack emi --principal 100000 --rate 12 --tenure 12",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := decimal.NewFromString(principal)
			if err != nil || !p.IsPositive() {
				return fmt.Errorf("invalid --principal %q", principal)
			}
			r, err := decimal.NewFromString(rate)
			if err != nil || r.IsNegative() {
				return fmt.Errorf("invalid --rate %q", rate)
			}

			emi, err := loans.ComputeEMI(p, r, tenure)
			if err != nil {
				return err
			}

			l := loans.Loan{Principal: p, InterestRate: r, TenureMonths: tenure, EMI: emi}
			fmt.Fprintf(opts.out, "EMI:             %s\n", emi.StringFixed(domain.MoneyScale))
			fmt.Fprintf(opts.out, "Total repayment: %s\n", l.TotalRepayment().StringFixed(domain.MoneyScale))
			fmt.Fprintf(opts.out, "Total interest:  %s\n", l.TotalInterest().StringFixed(domain.MoneyScale))
			return nil
		},
	}

	cmd.Flags().StringVar(&principal, "principal", "", "amount borrowed")
	cmd.Flags().StringVar(&rate, "rate", "", "annual interest rate in percent")
	cmd.Flags().IntVar(&tenure, "tenure", 0, "tenure in months")
	_ = cmd.MarkFlagRequired("principal")
	_ = cmd.MarkFlagRequired("rate")
	_ = cmd.MarkFlagRequired("tenure")
	return cmd
}
