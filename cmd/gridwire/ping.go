package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zereker/gridwire"
	"github.com/Zereker/gridwire/codec"
)

type pingFlags struct {
	Address     string
	ClusterName string
	Username    string
	Password    string
	Count       int
	Interval    time.Duration
	Timeout     time.Duration
}

var pingOpts pingFlags

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Authenticate against a member and measure round trips",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		return runPing(ctx, cmd, pingOpts)
	},
}

func init() {
	pingCmd.Flags().StringVarP(&pingOpts.Address, "addr", "a", "127.0.0.1:5701", "member address")
	pingCmd.Flags().StringVar(&pingOpts.ClusterName, "cluster-name", "dev", "cluster name sent in authentication")
	pingCmd.Flags().StringVar(&pingOpts.Username, "username", "", "username, empty for none")
	pingCmd.Flags().StringVar(&pingOpts.Password, "password", "", "password, empty for none")
	pingCmd.Flags().IntVarP(&pingOpts.Count, "count", "c", 4, "number of pings")
	pingCmd.Flags().DurationVarP(&pingOpts.Interval, "interval", "i", time.Second, "delay between pings")
	pingCmd.Flags().DurationVar(&pingOpts.Timeout, "timeout", 5*time.Second, "per request timeout")
}

func runPing(ctx context.Context, cmd *cobra.Command, flags pingFlags) error {
	out := cmd.OutOrStdout()

	dialCtx, cancelDial := context.WithTimeout(ctx, flags.Timeout)
	c, err := dialClient(dialCtx, flags.Address, gridwire.LoggerOption(gridwire.NewZapLogger(logger)))
	cancelDial()
	if err != nil {
		return err
	}
	defer c.Close()

	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(ctx) }()

	req := codec.ClientAuthenticationRequest{
		ClusterName:          flags.ClusterName,
		UUID:                 uuid.New(),
		ClientType:           "GOO",
		SerializationVersion: 1,
		ClientVersion:        "1.0.0",
		ClientName:           "gridwire-ping",
	}
	if flags.Username != "" {
		req.Username = &flags.Username
	}
	if flags.Password != "" {
		req.Password = &flags.Password
	}

	authCtx, cancelAuth := context.WithTimeout(ctx, flags.Timeout)
	resp, err := c.authenticate(authCtx, req)
	cancelAuth()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "connected to member %s (version %s, %d partitions)\n",
		resp.MemberUUID, resp.ServerVersion, resp.PartitionCount)

	var total time.Duration
	for i := 0; i < flags.Count; i++ {
		if i > 0 {
			select {
			case <-time.After(flags.Interval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		pingCtx, cancelPing := context.WithTimeout(ctx, flags.Timeout)
		start := time.Now()
		msg, err := c.Invoke(pingCtx, codec.EncodeClientPingRequest())
		rtt := time.Since(start)
		cancelPing()
		if err != nil {
			return err
		}
		if err := codec.DecodeClientPingResponse(msg); err != nil {
			return err
		}

		total += rtt
		fmt.Fprintf(out, "ping seq=%d correlation=%d time=%s\n", i+1, msg.CorrelationID(), rtt)
	}

	if flags.Count > 0 {
		fmt.Fprintf(out, "%d pings, avg %s\n", flags.Count, total/time.Duration(flags.Count))
	}

	closeErr := c.Close()
	if err := <-runErr; err != nil {
		logger.Debug("connection closed", zap.Error(err))
	}
	return closeErr
}
