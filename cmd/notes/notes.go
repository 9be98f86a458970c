package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"notes-sync/internal/model"
)

func newListCmd(opts *options) *cobra.Command {
	var (
		asJSON bool
		filter string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				s, err := a.session(cmd.Context())
				if err != nil {
					return err
				}
				defer s.Close()

				s.SetFilter(filter)
				st := s.State()
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), st.Notes)
				}
				for _, n := range st.Notes {
					printNoteLine(cmd.OutOrStdout(), n, n.ID == st.ActiveID)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	cmd.Flags().StringVar(&filter, "filter", "", "Only notes whose title or content contains the text")
	return cmd
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				s, err := a.session(cmd.Context())
				if err != nil {
					return err
				}
				defer s.Close()

				s.SelectNote(args[0])
				note, ok := s.Active()
				if !ok {
					return fmt.Errorf("note %s: not found", args[0])
				}
				return writeJSON(cmd.OutOrStdout(), note)
			})
		},
	}
}

func newCreateCmd(opts *options) *cobra.Command {
	var in model.NoteInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				s, err := a.session(cmd.Context())
				if err != nil {
					return err
				}
				defer s.Close()

				note, err := s.CreateNote(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), note.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "Note title")
	cmd.Flags().StringVar(&in.Content, "content", "", "Note content")
	return cmd
}

func newUpdateCmd(opts *options) *cobra.Command {
	var title, content string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the title and/or content of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.NotePatch
			if cmd.Flags().Changed("title") {
				patch.Title = model.String(title)
			}
			if cmd.Flags().Changed("content") {
				patch.Content = model.String(content)
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update: pass --title and/or --content")
			}

			return withApp(cmd.Context(), opts, func(a *app) error {
				s, err := a.session(cmd.Context())
				if err != nil {
					return err
				}
				defer s.Close()

				note, err := s.UpdateNote(cmd.Context(), args[0], patch)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), note)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&content, "content", "", "New content")
	return cmd
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				s, err := a.session(cmd.Context())
				if err != nil {
					return err
				}
				defer s.Close()

				return s.DeleteNote(cmd.Context(), args[0])
			})
		},
	}
}

func printNoteLine(w io.Writer, n model.Note, active bool) {
	marker := " "
	if active {
		marker = "*"
	}
	title := n.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(w, "%s %s  %s\n", marker, n.ID, title)
}
