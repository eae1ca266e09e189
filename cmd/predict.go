package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/KaramelBytes/returnlens-cli/internal/predict"
	"github.com/KaramelBytes/returnlens-cli/internal/utils"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	prdInput   = predict.DefaultInput()
	prdJSON    bool
	prdOptions bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict whether an order will be returned",
	Long: `Score one order with the trained classifier. Every input has a default
taken from the prediction form, so only the fields that differ need flags.
Use --options to list accepted categories, payment modes and cities.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if prdOptions {
			b, err := utils.PrettyJSON(predict.FormOptions())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		// A new category without a subcategory takes that category's first one.
		f := cmd.Flags()
		if f.Changed("category") && !f.Changed("subcategory") {
			if subs, ok := predict.FormOptions().Subcategories(prdInput.ProductCategory); ok && len(subs) > 0 {
				prdInput.ProductSubcategory = subs[0]
			}
		}
		if err := prdInput.Validate(); err != nil {
			return err
		}
		m, err := loadModel()
		if err != nil {
			return err
		}
		res, err := predict.Predict(m, prdInput)
		if err != nil {
			var ie *predict.InferenceError
			if errors.As(err, &ie) {
				logger.Error("prediction failed", zap.Strings("fields", ie.Fields), zap.Error(ie.Err))
			}
			return err
		}
		logger.Debug("prediction", zap.Float64("probability", res.Probability), zap.Int("label", res.Label))

		if prdJSON {
			b, err := utils.PrettyJSON(struct {
				*predict.Result
				Verdict        string `json:"verdict"`
				Recommendation string `json:"recommendation"`
			}{res, res.Verdict(), res.Recommendation()})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		printPrediction(out, res)
		return nil
	},
}

func printPrediction(w io.Writer, res *predict.Result) {
	in := res.Input
	fmt.Fprintln(w, "Input")
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"Field", "Value"})
	t.AppendBulk([][]string{
		{"Quantity", strconv.Itoa(in.Quantity)},
		{"Unit_Price", fmtFloat(in.UnitPrice)},
		{"Tax", fmtFloat(in.Tax)},
		{"Reviews", strconv.Itoa(in.Reviews)},
		{"Income", fmtFloat(in.Income)},
		{"product_category", in.ProductCategory},
		{"Product_Subcategory", in.ProductSubcategory},
		{"Payment_mode", in.PaymentMode},
		{"City", in.City},
	})
	t.Render()

	d := res.Derived
	fmt.Fprintln(w, "\nDerived")
	t = tablewriter.NewWriter(w)
	t.SetHeader([]string{"Metric", "Value"})
	t.AppendBulk([][]string{
		{"Price", fmtFloat(d.Price)},
		{"total_price", fmtFloat(d.TotalPrice)},
		{"tax_ratio", strconv.FormatFloat(d.TaxRatio, 'f', 6, 64)},
	})
	t.Render()

	mark := "✓"
	if res.Return {
		mark = "⚠"
	}
	fmt.Fprintf(w, "\n%s %s\n", mark, res.Verdict())
	fmt.Fprintln(w, res.Recommendation())
}

func fmtFloat(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }

func init() {
	rootCmd.AddCommand(predictCmd)
	f := predictCmd.Flags()
	f.IntVar(&prdInput.Quantity, "quantity", prdInput.Quantity, "units ordered (1-10)")
	f.Float64Var(&prdInput.UnitPrice, "unit-price", prdInput.UnitPrice, "price per unit (0-20000)")
	f.Float64Var(&prdInput.Tax, "tax", prdInput.Tax, "tax amount (0-2000)")
	f.IntVar(&prdInput.Reviews, "reviews", prdInput.Reviews, "customer review score (1-5)")
	f.Float64Var(&prdInput.Income, "income", prdInput.Income, "customer annual income (0-300000)")
	f.StringVar(&prdInput.ProductCategory, "category", prdInput.ProductCategory, "product category")
	f.StringVar(&prdInput.ProductSubcategory, "subcategory", prdInput.ProductSubcategory, "product subcategory (must belong to --category)")
	f.StringVar(&prdInput.PaymentMode, "payment", prdInput.PaymentMode, "payment mode")
	f.StringVar(&prdInput.City, "city", prdInput.City, "customer city")
	f.BoolVar(&prdJSON, "json", false, "print the result as JSON")
	f.BoolVar(&prdOptions, "options", false, "print accepted input values and exit")
}
