package main

import (
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/gamesurge/gsdb"
)

func (a *app) exportCmd() *cobra.Command {
	var indent int
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Print a database as YAML, keeping record order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.load(args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(a.out)
			enc.SetIndent(indent)
			if err := enc.Encode(yamlObject(root)); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().IntVar(&indent, "indent", 2, "spaces per indentation level")
	return cmd
}

func yamlString(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func yamlObject(obj *gsdb.Object) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for key, v := range obj.All() {
		n.Content = append(n.Content, yamlString(key), yamlValue(v))
	}
	return n
}

func yamlValue(v *gsdb.Value) *yaml.Node {
	switch v.Kind() {
	case gsdb.KindStringList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, s := range v.List() {
			n.Content = append(n.Content, yamlString(s))
		}
		return n
	case gsdb.KindObject:
		return yamlObject(v.Object())
	default:
		return yamlString(v.Str())
	}
}
