package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/fadilmartias/job-matcher/internal/config"
)

const app = "job-matcher"

var rootCmd = &cobra.Command{
	Use:   app,
	Short: "job-matcher embeds jobs and resumes and notifies candidates about matching jobs",
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	v := config.Viper()
	if err := v.BindPFlag("LOG_DEBUG", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		log.Fatalf("binding debug flag: %v", err)
	}
	if err := v.BindPFlag("LOG_JSON", rootCmd.PersistentFlags().Lookup("json")); err != nil {
		log.Fatalf("binding json flag: %v", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
