package parsers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/parsers"
)

func TestCompareVersions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "2.0", -1},
		{"2.0", "1.0", 1},
		{"2.0.1", "2.0.1", 0},
		{"2.0", "2.0.1", -1},
		{"2.0.1a", "2.0.1", 1},
		{"5.5p1", "5.5p2", -1},
		{"5.5p10", "5.5p1", 1},
		{"10xyz", "10.1xyz", -1},
		{"xyz10", "xyz10.1", -1},
		{"xyz.4", "8", -1},
		{"8", "xyz.4", 1},
		{"1.el7", "1.any", 1},
		{"4.4.23", "4.4.18", 1},
		{"4.4.014", "4.4.14", 0},
		{"1.0~rc1", "1.0", -1},
		{"1.0~rc1", "1.0~rc2", -1},
		{"1.0~rc1~git123", "1.0~rc1", -1},
		{"1.", "1", 0},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, parsers.CompareVersions(tc.a, tc.b), "%s vs %s", tc.a, tc.b)
		assert.Equal(t, -tc.want, parsers.CompareVersions(tc.b, tc.a), "%s vs %s", tc.b, tc.a)
	}
}

func TestParsePackage(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input string
		want  parsers.InstalledRpm
		nvr   string
	}{
		"plain nvr": {
			input: "bash-4.4.14-1.any",
			want:  parsers.InstalledRpm{Name: "bash", Version: "4.4.14", Release: "1.any"},
			nvr:   "bash-4.4.14-1.any",
		},
		"with arch": {
			input: "openssh-6.6.1p1-31.el7.x86_64",
			want:  parsers.InstalledRpm{Name: "openssh", Version: "6.6.1p1", Release: "31.el7", Arch: "x86_64"},
			nvr:   "openssh-6.6.1p1-31.el7",
		},
		"dashed name with trailing columns": {
			input: "openssh-server-7.4p1-16.el7.x86_64    Tue 14 Mar 2017 10:00:00 AM",
			want:  parsers.InstalledRpm{Name: "openssh-server", Version: "7.4p1", Release: "16.el7", Arch: "x86_64"},
			nvr:   "openssh-server-7.4p1-16.el7",
		},
		"epoch before version": {
			input: "openssl-1:1.0.2k-8.el7.x86_64",
			want:  parsers.InstalledRpm{Name: "openssl", Epoch: "1", Version: "1.0.2k", Release: "8.el7", Arch: "x86_64"},
			nvr:   "openssl-1.0.2k-8.el7",
		},
		"epoch before name": {
			input: "1:openssl-1.0.2k-8.el7.noarch",
			want:  parsers.InstalledRpm{Name: "openssl", Epoch: "1", Version: "1.0.2k", Release: "8.el7", Arch: "noarch"},
			nvr:   "openssl-1.0.2k-8.el7",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := parsers.ParsePackage(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.nvr, got.NVR())
			assert.Equal(t, tc.nvr, got.Package())
		})
	}

	for _, bad := range []string{"", "bash", "bash-4.4", "-4.4-1"} {
		_, err := parsers.ParsePackage(bad)
		assert.Error(t, err, bad)
	}
}

func TestInstalledRpmCompare(t *testing.T) {
	t.Parallel()

	bug := parsers.MustParsePackage("bash-4.4.14-1.any")
	fix := parsers.MustParsePackage("bash-4.4.18-1.any")

	assert.Equal(t, 0, bug.Compare(parsers.MustParsePackage("bash-4.4.14-1.any")))
	assert.True(t, bug.Less(fix))
	assert.True(t, fix.Less(parsers.MustParsePackage("bash-4.4.23-1.fc28")))
	assert.True(t, parsers.MustParsePackage("bash-4.4.18-1.any").Less(parsers.MustParsePackage("bash-1:4.4.1-1.any")))
	assert.False(t, fix.Less(bug))
	assert.True(t, parsers.MustParsePackage("bash-4.4.18-1.el8").Less(parsers.MustParsePackage("bash-4.4.18-1.el8_1")))
	assert.True(t, parsers.MustParsePackage("bash-4.4.18~rc1-1.el8").Less(fix))
}

func TestParseInstalledRpms(t *testing.T) {
	t.Parallel()

	rpms, err := parsers.ParseInstalledRpms([]string{
		"openssh-6.6.1p1-31.el7.x86_64",
		"openssh-6.5.1p1-31.el7.x86_64",
		"",
		"error: rpmdbNextIterator: skipping h#     294 Header SHA1 digest: BAD",
		"bash-4.4.23-1.fc28.x86_64",
		"gibberish",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"bash", "openssh"}, rpms.Names())
	assert.True(t, rpms.Contains("bash"))
	assert.False(t, rpms.Contains("zsh"))
	assert.Equal(t, []string{"gibberish"}, rpms.Unparsed)

	newest, ok := rpms.Max("openssh")
	require.True(t, ok)
	assert.Equal(t, "openssh-6.6.1p1-31.el7", newest.Package())

	oldest, ok := rpms.Min("openssh")
	require.True(t, ok)
	assert.Equal(t, "openssh-6.5.1p1-31.el7", oldest.Package())

	_, ok = rpms.Max("zsh")
	assert.False(t, ok)

	_, err = parsers.ParseInstalledRpms([]string{"", "warning: nothing"})
	require.ErrorIs(t, err, parsers.ErrNoData)
}

func TestParseInstalledRpmsJSON(t *testing.T) {
	t.Parallel()

	rpms, err := parsers.ParseInstalledRpms([]string{
		`{"name": "bash", "epoch": "(none)", "version": "4.4.14", "release": "1.el8", "arch": "x86_64", "installtime": "Mon Jan  1 00:00:00 2024", "vendor": "Red Hat, Inc."}`,
		`{"name": "openssl", "epoch": "1", "version": "1.1.1c", "release": "15.el8", "arch": "x86_64"}`,
		`{"name": "openssl", "epoch": "1", "version": "1.1.1g", "release": "11.el8", "arch": "x86_64"}`,
		`{"name": "gpg-pubkey", "epoch": null, "version": "fd431d51", "release": "4ae0493b", "arch": "(none)"}`,
		`{"name": "broken"`,
	})
	require.NoError(t, err)

	bash, ok := rpms.Max("bash")
	require.True(t, ok)
	assert.Equal(t, parsers.InstalledRpm{Name: "bash", Version: "4.4.14", Release: "1.el8", Arch: "x86_64"}, bash)

	openssl, ok := rpms.Max("openssl")
	require.True(t, ok)
	assert.Equal(t, "1", openssl.Epoch)
	assert.Equal(t, "openssl-1.1.1g-11.el8", openssl.Package())

	assert.True(t, rpms.Contains("gpg-pubkey"))
	assert.Equal(t, []string{`{"name": "broken"`}, rpms.Unparsed)
}

func TestParseRedhatRelease(t *testing.T) {
	t.Parallel()

	fedora, err := parsers.ParseRedhatRelease([]string{"Fedora release 28 (Twenty Eight)"})
	require.NoError(t, err)
	assert.Equal(t, "Fedora", fedora.Product)
	assert.Equal(t, "28", fedora.Version)
	assert.Equal(t, 28, fedora.Major)
	assert.Equal(t, "Twenty Eight", fedora.CodeName)
	assert.True(t, fedora.IsFedora())
	assert.False(t, fedora.IsRHEL())

	rhel, err := parsers.ParseRedhatRelease([]string{"", "Red Hat Enterprise Linux Server release 7.4 (Maipo)"})
	require.NoError(t, err)
	assert.Equal(t, "Red Hat Enterprise Linux Server", rhel.Product)
	assert.Equal(t, 7, rhel.Major)
	assert.Equal(t, 4, rhel.Minor)
	assert.Equal(t, "Maipo", rhel.CodeName)
	assert.True(t, rhel.IsRHEL())
	assert.False(t, rhel.IsFedora())

	centos, err := parsers.ParseRedhatRelease([]string{"CentOS Linux release 7.9.2009 (Core)"})
	require.NoError(t, err)
	assert.True(t, centos.IsCentOS())
	assert.Equal(t, 9, centos.Minor)

	_, err = parsers.ParseRedhatRelease(nil)
	require.ErrorIs(t, err, parsers.ErrNoData)

	other, err := parsers.ParseRedhatRelease([]string{"Fedora 28 (Twenty Eight)"})
	require.NoError(t, err)
	assert.Equal(t, "Fedora 28 (Twenty Eight)", other.Product)
	assert.Empty(t, other.Version)
	assert.Zero(t, other.Major)
	assert.True(t, other.IsFedora())
}

func TestParseHostname(t *testing.T) {
	t.Parallel()

	h, err := parsers.ParseHostname([]string{"testhost.someplace.com"})
	require.NoError(t, err)
	assert.Equal(t, &parsers.Hostname{FQDN: "testhost.someplace.com", Short: "testhost", Domain: "someplace.com"}, h)

	h, err = parsers.ParseHostname([]string{"localhost"})
	require.NoError(t, err)
	assert.Equal(t, "localhost", h.Short)
	assert.Empty(t, h.Domain)

	_, err = parsers.ParseHostname([]string{" "})
	require.ErrorIs(t, err, parsers.ErrNoData)

	_, err = parsers.ParseHostname([]string{"hostname: Name or service not known"})
	require.Error(t, err)
}

func TestParseSSHDConfig(t *testing.T) {
	t.Parallel()

	cfg, err := parsers.ParseSSHDConfig([]string{
		"# Protocol 2",
		"AuthenticationMethods publickey",
		"LogLevel VERBOSE",
		"  PermitRootLogin yes",
		"permitrootlogin=no",
		"Match User backup",
		"    PermitRootLogin forced-commands-only",
		"Match all",
		"LoginGraceTime = 30",
	})
	require.NoError(t, err)

	v, ok := cfg.Last("PermitRootLogin")
	require.True(t, ok)
	assert.Equal(t, "forced-commands-only", v)
	assert.Equal(t, []string{"yes", "no", "forced-commands-only"}, cfg.All("PermitRootLogin"))

	v, ok = cfg.Last("LOGLEVEL")
	require.True(t, ok)
	assert.Equal(t, "VERBOSE", v)

	v, ok = cfg.Last("LoginGraceTime")
	require.True(t, ok)
	assert.Equal(t, "30", v)

	_, ok = cfg.Last("Protocol")
	assert.False(t, ok, "commented directives are ignored")
	assert.False(t, cfg.Has("Protocol"))

	require.Len(t, cfg.Lines, 6)
	assert.Equal(t, "User backup", cfg.Lines[4].Match)
	assert.Equal(t, 7, cfg.Lines[4].Line)
	assert.Empty(t, cfg.Lines[5].Match)

	empty, err := parsers.ParseSSHDConfig(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Lines)
}
