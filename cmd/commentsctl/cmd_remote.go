package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/exivox-comments/internal/form"
	"github.com/pribylovaa/exivox-comments/internal/models"
	"github.com/pribylovaa/exivox-comments/internal/render"
	commentsgrpc "github.com/pribylovaa/exivox-comments/internal/transport/grpc"
	logctx "github.com/pribylovaa/exivox-comments/pkg/log"
)

func newListCmd(g *globalFlags, dial dialFunc) *cobra.Command {
	var view viewFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the rendered thread of a subject",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := g.commandContext(cmd)
			defer cancel()

			return withClient(g, dial, func(c commentsgrpc.CommentsClient) error {
				resp, err := c.ListComments(ctx, &commentsgrpc.ListCommentsRequest{SubjectKey: g.subject, Sort: view.sort})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Comments (%d), sorted by %s\n\n", resp.Total, resp.Sort)

				r := render.New(render.Options{MaxDepth: view.maxDepth})
				return render.WriteText(out, r.Tree(commentsgrpc.ToModelList(resp.Comments), view.state()))
			})
		},
	}

	view.register(cmd)

	return cmd
}

// newAddCmd — отправка через form.Form: те же правила и тот же отчёт об
// отклонённых файлах, что и в клиенте.
func newAddCmd(g *globalFlags, dial dialFunc) *cobra.Command {
	var (
		parentID  string
		anonymous bool
		files     []string
		emoji     string
	)

	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Post a comment (or a reply with --reply-to)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := g.commandContext(cmd)
			defer cancel()

			f := form.New(form.Options{ParentID: parentID})
			if len(args) == 1 {
				f.SetContent(args[0])
			}
			if emoji != "" {
				n := utf8.RuneCountInString(f.Content())
				f.InsertAt(n, n, emoji)
			}
			f.SetAnonymous(anonymous)

			atts := make([]models.Attachment, 0, len(files))
			for _, raw := range files {
				a, err := parseAttachment(raw)
				if err != nil {
					return err
				}
				atts = append(atts, a)
			}

			for _, rej := range f.Attach(atts...) {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %v\n", rej)
			}

			return withClient(g, dial, func(c commentsgrpc.CommentsClient) error {
				var created *commentsgrpc.Comment

				err := f.Submit(ctx, func(ctx context.Context, p models.Payload) error {
					resp, err := c.CreateComment(ctx, &commentsgrpc.CreateCommentRequest{
						SubjectKey:  g.subject,
						Author:      g.author(),
						Content:     p.Content,
						IsAnonymous: p.IsAnonymous,
						ParentID:    p.ParentID,
						Attachments: commentsgrpc.FromModelAttachments(p.Attachments),
					})
					if err != nil {
						return err
					}
					created = resp.Comment
					return nil
				})
				if err != nil {
					return err
				}

				logctx.From(ctx).Debug("comment created", "comment_id", created.ID)
				fmt.Fprintln(cmd.OutOrStdout(), created.ID)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&parentID, "reply-to", "", "id of the top-level comment to reply to")
	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "post without revealing the author")
	cmd.Flags().StringVar(&emoji, "emoji", "", "emoji appended at the end of the text")
	cmd.Flags().StringArrayVar(&files, "attach", nil, "attachment as name:content-type:size:url (repeatable)")

	return cmd
}

func newStarCmd(g *globalFlags, dial dialFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "star <comment-id>",
		Short: "Toggle the star on a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := g.commandContext(cmd)
			defer cancel()

			return withClient(g, dial, func(c commentsgrpc.CommentsClient) error {
				resp, err := c.ToggleStar(ctx, &commentsgrpc.ToggleStarRequest{SubjectKey: g.subject, CommentID: args[0]})
				if err != nil {
					return err
				}

				mark := "unstarred"
				if resp.Comment.IsStarred {
					mark = "starred"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d)\n", resp.Comment.ID, mark, resp.Comment.Stars)

				return nil
			})
		},
	}
}

func newCountCmd(g *globalFlags, dial dialFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of comments including replies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := g.commandContext(cmd)
			defer cancel()

			return withClient(g, dial, func(c commentsgrpc.CommentsClient) error {
				resp, err := c.CountComments(ctx, &commentsgrpc.CountCommentsRequest{SubjectKey: g.subject})
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), resp.Count)

				return nil
			})
		},
	}
}

func (g *globalFlags) author() *commentsgrpc.Author {
	if g.userID == "" {
		return nil
	}

	return &commentsgrpc.Author{ID: g.userID, Username: g.username, DisplayName: g.displayName}
}

// parseAttachment разбирает "name:content-type:size:url".
func parseAttachment(raw string) (models.Attachment, error) {
	parts := strings.SplitN(raw, ":", 4)
	if len(parts) != 4 {
		return models.Attachment{}, fmt.Errorf("attachment %q: want name:content-type:size:url", raw)
	}

	size, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("attachment %q: bad size: %w", raw, err)
	}

	return models.Attachment{Name: parts[0], ContentType: parts[1], Size: size, URL: parts[3]}, nil
}
