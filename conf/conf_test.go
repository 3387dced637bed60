package conf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/gamesurge/gsdb"
)

const sample = `"ircd_path" = "/home/ircd/ircu";
"sshkey" = {
	"pub" = "/home/gs/.ssh/id_rsa.pub";
	"priv" = "/home/gs/.ssh/id_rsa";
	"ask_passphrase" = "Yes";
};
"diff" = "diff -u $1 $2";
"history" = { "keep" = "25"; "bad" = "lots"; };
"servers" = ("hub", "leaf");
"colors" = "off";
`

func load(t *testing.T, data string) *Config {
	path := filepath.Join(t.TempDir(), "gsconf.cfg")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestConfigAccessors(t *testing.T) {
	convey.Convey("a loaded config", t, func() {
		c := load(t, sample)

		convey.Convey("Str follows paths", func() {
			s, ok := c.Str("sshkey/pub")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(s, convey.ShouldEqual, "/home/gs/.ssh/id_rsa.pub")

			_, ok = c.Str("sshkey")
			convey.So(ok, convey.ShouldBeFalse)
			_, ok = c.Str("servers")
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("StrDefault falls back", func() {
			convey.So(c.StrDefault("ircd_path", "x"), convey.ShouldEqual, "/home/ircd/ircu")
			convey.So(c.StrDefault("nope", "x"), convey.ShouldEqual, "x")
		})

		convey.Convey("List and Object", func() {
			convey.So(c.List("servers"), convey.ShouldResemble, []string{"hub", "leaf"})
			convey.So(c.List("ircd_path"), convey.ShouldBeNil)
			convey.So(c.Object("sshkey").Len(), convey.ShouldEqual, 3)
			convey.So(c.Object("servers"), convey.ShouldBeNil)
			convey.So(c.Node("history/keep").Kind(), convey.ShouldEqual, gsdb.KindString)
		})

		convey.Convey("Bool uses true strings", func() {
			convey.So(c.Bool("sshkey/ask_passphrase"), convey.ShouldBeTrue)
			convey.So(c.Bool("colors"), convey.ShouldBeFalse)
			convey.So(c.Bool("missing"), convey.ShouldBeFalse)
		})

		convey.Convey("Int parses or defaults", func() {
			convey.So(c.Int("history/keep", 10), convey.ShouldEqual, 25)
			convey.So(c.Int("history/bad", 10), convey.ShouldEqual, 10)
			convey.So(c.Int("history/none", 10), convey.ShouldEqual, 10)
		})

		convey.Convey("Expand substitutes numbered args", func() {
			s, ok := c.Expand("diff", "a.conf", "b.conf")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(s, convey.ShouldEqual, "diff -u a.conf b.conf")
			_, ok = c.Expand("nope")
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Required reports every missing path", func() {
			convey.So(c.Required("ircd_path", "sshkey/priv"), convey.ShouldBeNil)
			err := c.Required("ircd_path", "install_cmds/make", "servers")
			var me *MissingError
			convey.So(errors.As(err, &me), convey.ShouldBeTrue)
			convey.So(me.Paths, convey.ShouldResemble, []string{"install_cmds/make", "servers"})
			convey.So(err.Error(), convey.ShouldContainSubstring, "gsconf.cfg: missing install_cmds/make, servers")
		})
	})
}

func TestLoadErrors(t *testing.T) {
	convey.Convey("loading", t, func() {
		dir := t.TempDir()

		convey.Convey("a missing file fails", func() {
			_, err := Load(filepath.Join(dir, "missing.cfg"))
			convey.So(errors.Is(err, os.ErrNotExist), convey.ShouldBeTrue)
		})

		convey.Convey("a missing optional file is empty", func() {
			c, err := LoadOptional(filepath.Join(dir, "missing.cfg"), gsdb.Options{})
			convey.So(err, convey.ShouldBeNil)
			convey.So(c.Root().Len(), convey.ShouldEqual, 0)
			convey.So(c.Bool("anything"), convey.ShouldBeFalse)
		})

		convey.Convey("a broken file reports the position", func() {
			path := filepath.Join(dir, "bad.cfg")
			convey.So(os.WriteFile(path, []byte("\"a\" = \"b\"\n"), 0o644), convey.ShouldBeNil)
			_, err := Load(path)
			var pe *gsdb.ParseError
			convey.So(errors.As(err, &pe), convey.ShouldBeTrue)
			convey.So(pe.Code, convey.ShouldEqual, gsdb.ExpectedSemicolon)
			convey.So(pe.Line, convey.ShouldEqual, 2)
		})
	})
}

func TestNilConfig(t *testing.T) {
	convey.Convey("a nil config is empty", t, func() {
		var c *Config
		convey.So(c.StrDefault("a", "d"), convey.ShouldEqual, "d")
		convey.So(c.List("a"), convey.ShouldBeNil)
		convey.So(c.Path(), convey.ShouldEqual, "")
		convey.So(c.Required("a"), convey.ShouldNotBeNil)
	})
}

func TestTrueFalseString(t *testing.T) {
	convey.Convey("true and false strings", t, func() {
		for _, s := range []string{"on", "ON", "true", "True", "1", "yes", "YES", "y", "Y"} {
			convey.So(TrueString(s), convey.ShouldBeTrue)
			convey.So(FalseString(s), convey.ShouldBeFalse)
		}
		for _, s := range []string{"off", "false", "0", "no", "N"} {
			convey.So(TrueString(s), convey.ShouldBeFalse)
			convey.So(FalseString(s), convey.ShouldBeTrue)
		}
		for _, s := range []string{"", "maybe", "2", "yess"} {
			convey.So(TrueString(s), convey.ShouldBeFalse)
			convey.So(FalseString(s), convey.ShouldBeFalse)
		}
	})
}

func TestExpandArgs(t *testing.T) {
	convey.Convey("numbered argument expansion", t, func() {
		convey.So(ExpandArgs("cp $1 $2", "a", "b"), convey.ShouldEqual, "cp a b")
		convey.So(ExpandArgs("$2$1", "a", "b"), convey.ShouldEqual, "ba")
		convey.So(ExpandArgs("cost: $", "a"), convey.ShouldEqual, "cost: $")
		convey.So(ExpandArgs("$0 $3 $x", "a"), convey.ShouldEqual, "$0 $3 $x")
		convey.So(ExpandArgs("$10", "a"), convey.ShouldEqual, "$10")
		convey.So(ExpandArgs("$1$1", "<>"), convey.ShouldEqual, "<><>")
		convey.So(ExpandArgs("no args"), convey.ShouldEqual, "no args")
	})
}
