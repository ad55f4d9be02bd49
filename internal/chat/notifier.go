package chat

import (
	"context"
	"fmt"
	"log/slog"
)

// mentionChannel is prepended to messages that should ping everyone in the
// destination channel. It is part of the message body, not a delivery flag.
const mentionChannel = "<!channel> "

// Destination configures one notification class: a broadcast channel, a
// manager to DM, and whether manager DMs are enabled at all.
type Destination struct {
	Channel   string
	Manager   string
	ManagerDM bool
}

// Notifier exposes the named delivery targets of the dashboard: the surgery
// channel and its manager, and the shikigami feed and its manager. Each
// method resolves, gates on configuration and delegates to the Sender;
// resolution and configuration problems are absorbed as skips so one broken
// destination never blocks the others.
type Notifier struct {
	resolver *Resolver
	sender   *Sender
	logger   *slog.Logger

	surgery   Destination
	shikigami Destination
}

// NewNotifier creates a notifier for the configured destinations.
func NewNotifier(resolver *Resolver, sender *Sender, surgery, shikigami Destination, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		resolver:  resolver,
		sender:    sender,
		logger:    logger,
		surgery:   surgery,
		shikigami: shikigami,
	}
}

// DryRun reports whether the underlying sender simulates deliveries.
func (n *Notifier) DryRun() bool { return n.sender.DryRun() }

// SendToSurgeryChannel posts to the surgery broadcast channel.
func (n *Notifier) SendToSurgeryChannel(ctx context.Context, text string, pingChannel bool) (SendResult, error) {
	return n.sendToChannel(ctx, n.surgery.Channel, "surgery_channel", text, pingChannel)
}

// SendToShikigamiFeed posts an informational copy to the shikigami feed.
func (n *Notifier) SendToShikigamiFeed(ctx context.Context, text string, pingChannel bool) (SendResult, error) {
	return n.sendToChannel(ctx, n.shikigami.Channel, "shikigami_channel", text, pingChannel)
}

// DMSurgeryManager direct-messages the surgery manager, if enabled.
func (n *Notifier) DMSurgeryManager(ctx context.Context, text string) (SendResult, error) {
	return n.dmManager(ctx, n.surgery, "surgery_manager", text)
}

// DMShikigamiManager direct-messages the shikigami manager, if enabled.
func (n *Notifier) DMShikigamiManager(ctx context.Context, text string) (SendResult, error) {
	return n.dmManager(ctx, n.shikigami, "shikigami_manager", text)
}

func (n *Notifier) sendToChannel(ctx context.Context, label, class, text string, pingChannel bool) (SendResult, error) {
	if pingChannel {
		text = mentionChannel + text
	}

	target := label
	if target == "" {
		target = fmt.Sprintf("(unset:%s)", class)
	}

	if label == "" {
		return n.skip(target, text, "channel not resolvable"), nil
	}

	channelID, ok := n.resolver.ResolveChannel(ctx, label)
	if !ok {
		return n.skip(target, text, "channel not resolvable"), nil
	}

	return n.sender.Send(ctx, target, channelID, text)
}

func (n *Notifier) dmManager(ctx context.Context, dest Destination, class, text string) (SendResult, error) {
	if !dest.ManagerDM {
		return n.skip("dm:"+class, text, class+"_dm=false"), nil
	}
	if dest.Manager == "" {
		return n.skip("dm:"+class, text, "unset:"+class), nil
	}

	userID, ok := n.resolver.ResolveUser(ctx, dest.Manager)
	if !ok {
		return n.skip("dm:"+dest.Manager, text, class+" not resolvable"), nil
	}

	dm, ok := n.resolver.OpenDM(ctx, userID)
	if !ok {
		return n.skip("dm:"+userID, text, "could not open dm"), nil
	}

	return n.sender.Send(ctx, "dm:"+userID, dm, text)
}

func (n *Notifier) skip(target, text, reason string) SendResult {
	n.logger.Info("chat delivery",
		"phase", "SKIP",
		"target", target,
		"dry_run", n.sender.DryRun(),
		"text", text,
		"note", reason,
	)
	recordMessagePhase("skip")
	return SendResult{Status: StatusSkipped, Reason: reason}
}
