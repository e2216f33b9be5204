package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword 生成 bcrypt 哈希。注册入口限制了密码长度，
// 超过 bcrypt 72 字节上限的输入在这里报错而不是静默截断。
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
