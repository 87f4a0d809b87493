package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"rcrao/internal/amqp"
	"rcrao/internal/core"
)

type enqueueCmd struct {
	app         *app
	category    string
	periodKind  string
	selector    string
	generatedBy string
}

func newEnqueueCmd(a *app) *cobra.Command {
	ec := &enqueueCmd{app: a}
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a report request for the report worker",
		RunE:  ec.run,
	}

	cmd.Flags().StringVar(&ec.category, "type", "summary", "Report type: collections, expenses, receivables or summary")
	cmd.Flags().StringVar(&ec.periodKind, "period", "daily", "Period: daily, weekly, monthly or yearly")
	cmd.Flags().StringVar(&ec.selector, "selector", "", "Period selector; the worker defaults to the current period")
	cmd.Flags().StringVar(&ec.generatedBy, "generated-by", "", "Name printed in the footer")

	return cmd
}

func (ec *enqueueCmd) run(cmd *cobra.Command, _ []string) error {
	cfg := ec.app.cfg
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required to enqueue report requests")
	}
	// Fail before touching the broker; the worker would drop these anyway.
	if _, err := core.ParsePeriodKind(ec.periodKind); err != nil {
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := amqp.NewReportRequestMessage(ec.category, ec.periodKind, ec.selector, ec.generatedBy)
	if err := client.PublishReportRequest(ctx, msg); err != nil {
		return fmt.Errorf("publish report request: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), msg.ID)
	return nil
}
