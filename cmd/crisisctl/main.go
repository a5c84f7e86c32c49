// crisisctl is the operator CLI for a running CrisisNet server: it feeds
// detection batches, location fixes, and sensor readings over the HTTP API
// and inspects session and alert state.
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/namanbnsl/CrisisNet/internal/campaign"
	"github.com/namanbnsl/CrisisNet/internal/dispatch"
	"github.com/namanbnsl/CrisisNet/internal/sensor"
)

var rootCmd = &cobra.Command{
	Use:   "crisisctl",
	Short: "CrisisNet CLI",
	Long: `crisisctl talks to a running CrisisNet server.

It can push detection batches, location fixes, manual alert triggers, and
sensor readings, and it can show the per-session alert state and the latest
broadcast alert.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CRISISNET")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("api-url", "http://localhost:8080", "CrisisNet API base URL")
	rootCmd.PersistentFlags().String("api-token", "", "bearer token for mutating routes")
	rootCmd.PersistentFlags().StringP("session", "s", "default", "dashboard session id")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("api-url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("api-token", rootCmd.PersistentFlags().Lookup("api-token"))
	_ = viper.BindPFlag("session", rootCmd.PersistentFlags().Lookup("session"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(detectCmd())
	rootCmd.AddCommand(locateCmd())
	rootCmd.AddCommand(alertCmd())
	rootCmd.AddCommand(stateCmd())
	rootCmd.AddCommand(readingCmd())
	rootCmd.AddCommand(latestCmd())
}

func detectCmd() *cobra.Command {
	var (
		labels     []string
		confidence float64
		imagePath  string
	)
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Send a detection batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			type detection struct {
				Label      string  `json:"label"`
				Confidence float64 `json:"confidence"`
			}
			batch := struct {
				Detections []detection `json:"detections"`
				Image      string      `json:"image,omitempty"`
			}{}
			for _, l := range labels {
				batch.Detections = append(batch.Detections, detection{Label: l, Confidence: confidence})
			}
			if imagePath != "" {
				raw, err := os.ReadFile(imagePath) //nolint:gosec // operator-supplied path
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				batch.Image = base64.StdEncoding.EncodeToString(raw)
			}

			var state dispatch.AlertState
			path := fmt.Sprintf("/api/v1/sessions/%s/detections", viper.GetString("session"))
			if err := apiDo(cmd.Context(), http.MethodPost, path, batch, &state); err != nil {
				return err
			}
			return printState(state)
		},
	}
	cmd.Flags().StringSliceVar(&labels, "label", nil, "detection label (repeatable)")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.9, "confidence attached to each label")
	cmd.Flags().StringVar(&imagePath, "image", "", "path to a frame to attach")
	_ = cmd.MarkFlagRequired("label")
	return cmd
}

func locateCmd() *cobra.Command {
	var lat, lng float64
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Send a location fix",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]float64{"lat": lat, "lng": lng}
			var state dispatch.AlertState
			path := fmt.Sprintf("/api/v1/sessions/%s/location", viper.GetString("session"))
			if err := apiDo(cmd.Context(), http.MethodPost, path, body, &state); err != nil {
				return err
			}
			return printState(state)
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func alertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alert",
		Short: "Trigger a manual alert for the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var state dispatch.AlertState
			path := fmt.Sprintf("/api/v1/sessions/%s/alert", viper.GetString("session"))
			if err := apiDo(cmd.Context(), http.MethodPost, path, nil, &state); err != nil {
				return err
			}
			return printState(state)
		},
	}
}

func stateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the session's alert state",
		RunE: func(cmd *cobra.Command, args []string) error {
			var state dispatch.AlertState
			path := fmt.Sprintf("/api/v1/sessions/%s/state", viper.GetString("session"))
			if err := apiDo(cmd.Context(), http.MethodGet, path, nil, &state); err != nil {
				return err
			}
			return printState(state)
		},
	}
}

func readingCmd() *cobra.Command {
	var (
		metric string
		value  float64
		unit   string
	)
	cmd := &cobra.Command{
		Use:   "reading",
		Short: "Record a sensor reading, or list them with no flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			if metric == "" {
				var body struct {
					Readings []sensor.Reading `json:"readings"`
				}
				if err := apiDo(cmd.Context(), http.MethodGet, "/api/v1/readings", nil, &body); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(body.Readings)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Metric", "Value", "Unit", "At"})
				for _, r := range body.Readings {
					tw.AppendRow(table.Row{r.Metric, r.Value, r.Unit, r.At.Format(time.RFC3339)})
				}
				tw.Render()
				return nil
			}

			reading := sensor.Reading{Metric: metric, Value: value, Unit: unit}
			var resp map[string]string
			if err := apiDo(cmd.Context(), http.MethodPost, "/api/v1/readings", reading, &resp); err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	cmd.Flags().StringVar(&metric, "metric", "", "metric name (empty lists readings)")
	cmd.Flags().Float64Var(&value, "value", 0, "reading value")
	cmd.Flags().StringVar(&unit, "unit", "", "reading unit")
	return cmd
}

func latestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent broadcast alert",
		RunE: func(cmd *cobra.Command, args []string) error {
			var rec campaign.AlertRecord
			if err := apiDo(cmd.Context(), http.MethodGet, "/api/v1/alerts/latest", nil, &rec); err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(rec)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "Lat", "Lng", "Radius (km)", "Post", "Created"})
			tw.AppendRow(table.Row{rec.ID, rec.Lat, rec.Lng, rec.RadiusKm, rec.PostID, rec.CreatedAt.Format(time.RFC3339)})
			tw.Render()
			return nil
		},
	}
}

func printState(state dispatch.AlertState) error {
	if viper.GetBool("json") {
		return printJSON(state)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Session", "Status", "Error"})
	tw.AppendRow(table.Row{viper.GetString("session"), string(state.Status), state.Err})
	tw.Render()
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// apiDo sends one JSON request to the server and decodes the JSON response
// into out (skipped when out is nil).
func apiDo(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	url := strings.TrimRight(viper.GetString("api-url"), "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := viper.GetString("api-token"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
