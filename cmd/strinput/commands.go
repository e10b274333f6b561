package main

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ashwch/strinput/internal/invocation"
	"github.com/ashwch/strinput/internal/text"
	"github.com/ashwch/strinput/internal/tree"
	"github.com/ashwch/strinput/internal/user"
)

func demoHosts() []tree.Category {
	return []tree.Category{&calculator{}, &textTools{}, &whoami{}}
}

func reply(inv *invocation.Invocation, line string) {
	inv.User.SendMessage(text.Colored(text.Green, line))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type calculator struct{}

func (c *calculator) Declare() tree.Spec {
	inv := tree.Param("inv").Context()
	return tree.Spec{
		Name:        "calc",
		Aliases:     []string{"calculator", "math"},
		Description: "Arithmetic on two numbers",
		Commands: []tree.CommandSpec{
			tree.Cmd("add", func(inv *invocation.Invocation, a, b float64) {
				reply(inv, formatNumber(a+b))
			}, inv, tree.Param("a"), tree.Param("b")).
				Alias("plus", "sum").
				Describe("Add two numbers").
				Example("calc add 3 4"),
			tree.Cmd("sub", func(inv *invocation.Invocation, a, b float64) {
				reply(inv, formatNumber(a-b))
			}, inv, tree.Param("a"), tree.Param("b")).
				Alias("minus", "subtract").
				Describe("Subtract b from a"),
			tree.Cmd("mult", func(inv *invocation.Invocation, a, b float64) {
				reply(inv, formatNumber(a*b))
			}, inv, tree.Param("a"), tree.Param("b")).
				Alias("multiply", "times").
				Describe("Multiply two numbers"),
			tree.Cmd("div", func(inv *invocation.Invocation, a, b float64) error {
				if b == 0 {
					return errors.New("division by zero")
				}
				reply(inv, formatNumber(a/b))
				return nil
			}, inv, tree.Param("a"), tree.Param("b").Default("1")).
				Alias("divide").
				Describe("Divide a by b").
				Example("calc div 9 3", "calc div a=9 b=3"),
		},
	}
}

type textTools struct{}

func (t *textTools) Declare() tree.Spec {
	inv := tree.Param("inv").Context()
	return tree.Spec{
		Name:        "text",
		Aliases:     []string{"str"},
		Description: "Small string utilities",
		Commands: []tree.CommandSpec{
			tree.Cmd("upper", func(inv *invocation.Invocation, words ...string) {
				reply(inv, strings.ToUpper(strings.Join(words, " ")))
			}, inv).Alias("shout").Describe("Upper-case the words"),
			tree.Cmd("lower", func(inv *invocation.Invocation, words ...string) {
				reply(inv, strings.ToLower(strings.Join(words, " ")))
			}, inv).Describe("Lower-case the words"),
			tree.Cmd("reverse", func(inv *invocation.Invocation, words ...string) {
				runes := []rune(strings.Join(words, " "))
				slices.Reverse(runes)
				reply(inv, string(runes))
			}, inv).Describe("Reverse the characters"),
			tree.Cmd("count", func(inv *invocation.Invocation, words ...string) {
				joined := strings.Join(words, " ")
				reply(inv, strconv.Itoa(len(words))+" words, "+strconv.Itoa(utf8.RuneCountInString(joined))+" characters")
			}, inv).Alias("length").Describe("Count words and characters"),
			tree.Cmd("repeat", func(inv *invocation.Invocation, times int, word string) error {
				if times < 1 || times > 100 {
					return errors.New("times must be between 1 and 100")
				}
				reply(inv, strings.TrimSpace(strings.Repeat(word+" ", times)))
				return nil
			}, inv, tree.Param("times").Alias("n"), tree.Param("word")).
				Describe("Repeat a word").
				Example("text repeat 3 hey"),
		},
	}
}

type whoami struct{}

func (w *whoami) Declare() tree.Spec {
	return tree.Spec{
		Name:        "whoami",
		Aliases:     []string{"me"},
		Description: "About the current invocation",
		Commands: []tree.CommandSpec{
			tree.Cmd("name", func(inv *invocation.Invocation, u user.User) {
				reply(inv, u.Name())
			}, tree.Param("inv").Context(), tree.Param("user").Context()).
				Describe("Who is running this line"),
			tree.Cmd("id", func(inv *invocation.Invocation) {
				reply(inv, inv.ID)
			}, tree.Param("inv").Context()).
				Describe("Id of this invocation"),
			tree.Cmd("mode", func(inv *invocation.Invocation) {
				mode := "sync"
				if inv.Async {
					mode = "async"
				}
				reply(inv, mode)
			}, tree.Param("inv").Context()).
				Alias("async").
				Describe("Whether this line runs off the input goroutine"),
		},
	}
}
