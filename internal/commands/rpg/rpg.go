// Package rpg holds the economy and progression commands.
package rpg

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Anggahrm/dc-zumy/internal/command"
	"github.com/Anggahrm/dc-zumy/internal/respond"
)

const (
	dailyWindow = 24 * time.Hour

	dailyMoneyMin = 1000
	dailyMoneyMax = 3000
	dailyExpMin   = 50
	dailyExpMax   = 150

	// expPerLevel is how much experience one level takes.
	expPerLevel = 250
)

// Commands returns the rpg category command set.
func Commands() []*command.Command {
	return []*command.Command{
		dailyCommand(),
		profileCommand(),
	}
}

func levelFor(exp int64) int64 {
	return 1 + exp/expPerLevel
}

func dailyCommand() *command.Command {
	return &command.Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        "daily",
			Description: "Claim your daily money and experience",
		},
		Category: "rpg",
		Cooldown: 5,
		Execute: func(ctx *command.Context) error {
			user := ctx.User()
			rec, err := ctx.Store.LoadUser(ctx.Ctx, user.ID)
			if err != nil {
				return fmt.Errorf("load user %s: %w", user.ID, err)
			}

			now := time.Now()
			if next := rec.NextDailyAt(); next > now.UnixMilli() {
				wait := time.UnixMilli(next).Sub(now).Round(time.Minute)
				return respond.ReplyEphemeral(ctx.Session, ctx.Interaction, respond.Card{
					Title: "Already claimed",
					Color: respond.ColorYellow,
					Body:  fmt.Sprintf("Your next daily is ready in **%s**.", wait),
				})
			}

			money := int64(dailyMoneyMin + rand.Intn(dailyMoneyMax-dailyMoneyMin+1))
			exp := int64(dailyExpMin + rand.Intn(dailyExpMax-dailyExpMin+1))

			balance := rec.AddMoney(money)
			totalExp := rec.AddExp(exp)
			rec.SetNextDailyAt(now.Add(dailyWindow).UnixMilli())

			body := fmt.Sprintf("You received **%d** money and **%d** exp.\nBalance: **%d**", money, exp, balance)
			if newLevel := levelFor(totalExp); newLevel > rec.Level() {
				rec.SetLevel(newLevel)
				body += fmt.Sprintf("\nLevel up! You are now level **%d**.", newLevel)
			}

			return respond.Reply(ctx.Session, ctx.Interaction, respond.Card{
				Title: "Daily reward",
				Color: respond.ColorGold,
				Body:  body,
			})
		},
	}
}

func profileCommand() *command.Command {
	return &command.Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        "profile",
			Description: "Show a member's profile",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Whose profile to show (defaults to you)",
				},
			},
		},
		Category: "rpg",
		Cooldown: 2,
		Execute: func(ctx *command.Context) error {
			target := ctx.User()
			if opt, ok := ctx.Options()["member"]; ok {
				target = opt.UserValue(ctx.Session)
			}

			rec, err := ctx.Store.LoadUser(ctx.Ctx, target.ID)
			if err != nil {
				return fmt.Errorf("load user %s: %w", target.ID, err)
			}
			doc := rec.Snapshot()

			daily := "ready now"
			if doc.NextDailyAt > time.Now().UnixMilli() {
				daily = "ready " + time.UnixMilli(doc.NextDailyAt).UTC().Format("Jan 2 15:04 MST")
			}

			body := fmt.Sprintf(
				"Level: **%d**\nExp: **%d** / %d\nMoney: **%d**\nDaily: %s",
				doc.Level, doc.Exp, doc.Level*expPerLevel, doc.Money, daily,
			)
			return respond.Reply(ctx.Session, ctx.Interaction, respond.Card{
				Title: target.Username + "'s profile",
				Color: respond.ColorPurple,
				Body:  body,
			})
		},
	}
}
