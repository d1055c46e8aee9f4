package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	booleanFlagTypeName         = "bool"
	booleanFlagTrueLiteral      = "true"
	booleanFlagAcceptedLiterals = "true, false, yes, no, on, off, 1, 0"
	invalidBooleanMessageFormat = "invalid boolean value %q for --%s; accepted values: %s"
	endOfFlagsArgument          = "--"
	longFlagPrefix              = "--"
	flagAssignmentSeparator     = "="
	normalizedBooleanFlagFormat = "--%s=%s"
)

var booleanFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// parseBooleanLiteral accepts the spellings people type for switches. An empty
// value means the flag was given without one.
func parseBooleanLiteral(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return true, true
	}
	parsed, known := booleanFlagLiterals[normalized]
	return parsed, known
}

// booleanFlagValue is a pflag.Value for switches such as --copy and --notes.
type booleanFlagValue struct {
	target   *bool
	flagName string
}

func (value *booleanFlagValue) Set(input string) error {
	parsed, known := parseBooleanLiteral(input)
	if !known || value.target == nil {
		return fmt.Errorf(invalidBooleanMessageFormat, input, value.flagName, booleanFlagAcceptedLiterals)
	}
	*value.target = parsed
	return nil
}

func (value *booleanFlagValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *booleanFlagValue) Type() string {
	return booleanFlagTypeName
}

// registerBooleanFlag adds a switch that may be given bare, as --name=value or
// as --name value once the arguments went through normalizeBooleanFlagArguments.
func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	*target = defaultValue
	flagSet.Var(&booleanFlagValue{target: target, flagName: name}, name, usage)
	registered := flagSet.Lookup(name)
	registered.DefValue = strconv.FormatBool(defaultValue)
	registered.NoOptDefVal = booleanFlagTrueLiteral
}

// normalizeBooleanFlagArguments joins "--name value" into "--name=value" when
// name is a switch of any command and value is a boolean literal. Anything
// else after a switch, such as a root directory, stays a positional argument.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	switches := make(map[string]struct{})
	collectBooleanFlagNames(command, switches)
	if len(switches) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == endOfFlagsArgument {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		flagName := strings.TrimPrefix(argument, longFlagPrefix)
		_, isSwitch := switches[flagName]
		isBareSwitch := isSwitch && strings.HasPrefix(argument, longFlagPrefix) && !strings.Contains(argument, flagAssignmentSeparator)
		if isBareSwitch && index+1 < len(arguments) {
			next := arguments[index+1]
			if _, known := booleanFlagLiterals[strings.ToLower(strings.TrimSpace(next))]; known {
				normalized = append(normalized, fmt.Sprintf(normalizedBooleanFlagFormat, flagName, next))
				index++
				continue
			}
		}
		normalized = append(normalized, argument)
	}
	return normalized
}

func collectBooleanFlagNames(command *cobra.Command, target map[string]struct{}) {
	collect := func(flag *pflag.Flag) {
		if flag.Value.Type() == booleanFlagTypeName {
			target[flag.Name] = struct{}{}
		}
	}
	command.PersistentFlags().VisitAll(collect)
	command.Flags().VisitAll(collect)
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, target)
	}
}
