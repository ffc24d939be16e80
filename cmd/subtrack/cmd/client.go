package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/panpapadopoulos/subtrack/config"
	"github.com/panpapadopoulos/subtrack/dataset"
	"github.com/panpapadopoulos/subtrack/syncclient"
)

var (
	addJobDate     string
	addJobClass    string
	addJobTeacher  string
	addJobSchool   string
	addJobDistrict string
	addJobDay      string
	addJobStart    string
	addJobEnd      string

	addPaymentDate     string
	addPaymentDistrict string
	addPaymentAmount   float64
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Sync the dataset with a running gateway from the command line",
	Long: `Client logs in to the gateway at SUBTRACK_GATEWAY_URL with the shared
secret, loads the dataset, optionally records a job or payment, and prints
a summary. Edits are written back through the same debounced save path the
app uses, flushed before exit; the quiet period comes from
SUBTRACK_DEBOUNCE_WINDOW.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return runClient(cfg, cmd.OutOrStdout())
	},
}

func runClient(cfg *config.Config, out io.Writer) error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("failed to build cookie jar: %w", err)
	}
	httpClient := &http.Client{
		Jar:     jar,
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := httpClient.PostForm(cfg.Sync.GatewayURL+"/login",
		url.Values{"password": {cfg.Auth.Secret}})
	if err != nil {
		return fmt.Errorf("failed to reach gateway at %s: %w", cfg.Sync.GatewayURL, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		return fmt.Errorf("login rejected (status %d); check SUBTRACK_PASSWORD", resp.StatusCode)
	}

	ctrl := syncclient.New(cfg.Sync.GatewayURL,
		syncclient.WithHTTPClient(httpClient),
		syncclient.WithWindow(cfg.Sync.Window),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctrl.Load(ctx)

	if addJobDate != "" {
		j := dataset.NewJob(addJobDate, addJobClass, addJobTeacher, addJobSchool,
			addJobDistrict, dataset.DayType(addJobDay), addJobStart, addJobEnd)
		ctrl.AddJob(j)
		fmt.Fprintf(out, "Recorded job %s (%s, %.2f hours)\n", j.Date, j.ClassName, j.Hours)
	}
	if addPaymentDate != "" {
		p := dataset.NewPayment(addPaymentDate, addPaymentDistrict, addPaymentAmount)
		ctrl.AddPayment(p)
		fmt.Fprintf(out, "Recorded payment %s ($%.2f)\n", p.Date, p.Amount)
	}
	ctrl.Flush()

	d := ctrl.Dataset()
	var hours, paid float64
	for _, j := range d.Jobs {
		hours += j.Hours
	}
	for _, p := range d.Payments {
		paid += p.Amount
	}
	fmt.Fprintf(out, "%d jobs (%.2f hours), %d payments ($%.2f)\n",
		len(d.Jobs), hours, len(d.Payments), paid)
	return nil
}

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.Flags().StringVar(&addJobDate, "job-date", "", "Record a job on this date (YYYY-MM-DD)")
	clientCmd.Flags().StringVar(&addJobClass, "job-class", "", "Class name for the recorded job")
	clientCmd.Flags().StringVar(&addJobTeacher, "job-teacher", "", "Covered teacher for the recorded job")
	clientCmd.Flags().StringVar(&addJobSchool, "job-school", "", "School for the recorded job")
	clientCmd.Flags().StringVar(&addJobDistrict, "job-district", "", "District for the recorded job")
	clientCmd.Flags().StringVar(&addJobDay, "job-day", string(dataset.FullDay), "Day type: half or full")
	clientCmd.Flags().StringVar(&addJobStart, "job-start", "", "Start time for the recorded job (HH:MM)")
	clientCmd.Flags().StringVar(&addJobEnd, "job-end", "", "End time for the recorded job (HH:MM)")
	clientCmd.Flags().StringVar(&addPaymentDate, "payment-date", "", "Record a payment on this date (YYYY-MM-DD)")
	clientCmd.Flags().StringVar(&addPaymentDistrict, "payment-district", "", "District for the recorded payment")
	clientCmd.Flags().Float64Var(&addPaymentAmount, "payment-amount", 0, "Amount for the recorded payment")
}
