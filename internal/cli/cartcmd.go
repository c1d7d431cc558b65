package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"artmarket/internal/models"

	"github.com/spf13/cobra"
)

// NewCartCommand creates the cart command group.
func NewCartCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and edit the shopping cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			if err := rt.app.ProcessCartRefresh(cmd.Context()); err != nil {
				return errors.New(describeError(err))
			}
			items, total := rt.app.Store().Cart()

			payload := struct {
				Items []models.CartItem `json:"items"`
				Total models.Money      `json:"total"`
			}{Items: items, Total: total}
			return render(cmd.OutOrStdout(), opts, payload, func(w io.Writer) {
				printCart(w, items, total)
			})
		},
	}

	var quantity int
	add := &cobra.Command{
		Use:   "add <post-id>",
		Short: "Add an artwork to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid post id %q", args[0])
			}
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			if err := rt.app.ProcessAddToCart(cmd.Context(), id, quantity); err != nil {
				return errors.New(describeError(err))
			}
			items, total := rt.app.Store().Cart()
			printCart(cmd.OutOrStdout(), items, total)
			return nil
		},
	}
	add.Flags().IntVarP(&quantity, "quantity", "q", 1, "quantity to add")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <post-id>",
		Short: "Remove an artwork from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid post id %q", args[0])
			}
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			if err := rt.app.ProcessRemoveFromCart(cmd.Context(), id); err != nil {
				return errors.New(describeError(err))
			}
			items, total := rt.app.Store().Cart()
			printCart(cmd.OutOrStdout(), items, total)
			return nil
		},
	})

	return cmd
}

// NewCheckoutCommand creates the checkout command.
func NewCheckoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Place an order from the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			order, err := rt.app.ProcessCheckout(cmd.Context())
			if err != nil {
				return errors.New(describeError(err))
			}
			return render(cmd.OutOrStdout(), opts, order, func(w io.Writer) {
				printOrder(w, order)
			})
		},
	}
}

// NewOrdersCommand creates the orders command.
func NewOrdersCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List your placed orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			orders, err := rt.app.ProcessOrders(cmd.Context())
			if err != nil {
				return errors.New(describeError(err))
			}
			return render(cmd.OutOrStdout(), opts, orders, func(w io.Writer) {
				if len(orders) == 0 {
					fmt.Fprintln(w, "no orders yet")
					return
				}
				for _, o := range orders {
					printOrder(w, o)
				}
			})
		},
	}
}

// NewAddressCommand creates the address command.
func NewAddressCommand(opts *RootOptions) *cobra.Command {
	var addr models.Address

	cmd := &cobra.Command{
		Use:   "address",
		Short: "Save a shipping address",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			if err := rt.app.ProcessSaveAddress(cmd.Context(), addr); err != nil {
				return errors.New(describeError(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "address saved")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr.Street, "street", "", "street and number")
	cmd.Flags().StringVar(&addr.City, "city", "", "city")
	cmd.Flags().StringVar(&addr.State, "state", "", "state or province")
	cmd.Flags().StringVar(&addr.ZipCode, "zip", "", "zip or postal code")
	cmd.Flags().StringVar(&addr.Country, "country", "", "country")
	cmd.Flags().BoolVar(&addr.IsDefault, "default", false, "make this the default address")
	return cmd
}
