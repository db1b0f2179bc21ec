package soap

// ServiceWSDL はGETリクエストに対して返す静的なサービス定義。
// 5操作のリクエスト/レスポンス構造を記述する。
const ServiceWSDL = `<?xml version="1.0"?>
<definitions xmlns="http://schemas.xmlsoap.org/wsdl/"
             xmlns:soap="http://schemas.xmlsoap.org/wsdl/soap/"
             xmlns:tns="http://loan.service"
             targetNamespace="http://loan.service">
  <types>
    <xsd:schema xmlns:xsd="http://www.w3.org/2001/XMLSchema"
                targetNamespace="http://loan.service">
      <xsd:complexType name="loanType">
        <xsd:sequence>
          <xsd:element name="id" type="xsd:integer"/>
          <xsd:element name="userId" type="xsd:integer"/>
          <xsd:element name="bookId" type="xsd:integer"/>
          <xsd:element name="loanDate" type="xsd:dateTime"/>
          <xsd:element name="dueDate" type="xsd:dateTime"/>
          <xsd:element name="returnDate" type="xsd:dateTime" minOccurs="0"/>
          <xsd:element name="status" type="xsd:string"/>
        </xsd:sequence>
      </xsd:complexType>
      <xsd:element name="createLoanRequest">
        <xsd:complexType>
          <xsd:sequence>
            <xsd:element name="userId" type="xsd:integer"/>
            <xsd:element name="bookId" type="xsd:integer"/>
          </xsd:sequence>
        </xsd:complexType>
      </xsd:element>
      <xsd:element name="createLoanResponse">
        <xsd:complexType>
          <xsd:sequence>
            <xsd:element name="success" type="xsd:boolean"/>
            <xsd:element name="message" type="xsd:string"/>
            <xsd:element name="loan" type="tns:loanType" minOccurs="0"/>
          </xsd:sequence>
        </xsd:complexType>
      </xsd:element>
      <xsd:element name="returnLoanRequest">
        <xsd:complexType>
          <xsd:sequence>
            <xsd:element name="loanId" type="xsd:integer"/>
          </xsd:sequence>
        </xsd:complexType>
      </xsd:element>
      <xsd:element name="returnLoanResponse">
        <xsd:complexType>
          <xsd:sequence>
            <xsd:element name="success" type="xsd:boolean"/>
            <xsd:element name="message" type="xsd:string"/>
            <xsd:element name="loan" type="tns:loanType" minOccurs="0"/>
          </xsd:sequence>
        </xsd:complexType>
      </xsd:element>
      <xsd:element name="getLoanByIdRequest">
        <xsd:complexType>
          <xsd:sequence>
            <xsd:element name="loanId" type="xsd:integer"/>
          </xsd:sequence>
        </xsd:complexType>
      </xsd:element>
      <xsd:element name="getLoanByIdResponse">
        <xsd:complexType>
          <xsd:sequence>
            <xsd:element name="success" type="xsd:boolean"/>
            <xsd:element name="message" type="xsd:string"/>
            <xsd:element name="loan" type="tns:loanType" minOccurs="0"/>
          </xsd:sequence>
        </xsd:complexType>
      </xsd:element>
      <xsd:element name="getLoansByUserRequest">
        <xsd:complexType>
          <xsd:sequence>
            <xsd:element name="userId" type="xsd:integer"/>
          </xsd:sequence>
        </xsd:complexType>
      </xsd:element>
      <xsd:element name="getLoansByUserResponse">
        <xsd:complexType>
          <xsd:sequence>
            <xsd:element name="success" type="xsd:boolean"/>
            <xsd:element name="loan" type="tns:loanType" minOccurs="0" maxOccurs="unbounded"/>
          </xsd:sequence>
        </xsd:complexType>
      </xsd:element>
      <xsd:element name="getAllLoansRequest">
        <xsd:complexType>
          <xsd:sequence/>
        </xsd:complexType>
      </xsd:element>
      <xsd:element name="getAllLoansResponse">
        <xsd:complexType>
          <xsd:sequence>
            <xsd:element name="success" type="xsd:boolean"/>
            <xsd:element name="loan" type="tns:loanType" minOccurs="0" maxOccurs="unbounded"/>
          </xsd:sequence>
        </xsd:complexType>
      </xsd:element>
    </xsd:schema>
  </types>
  <message name="createLoanRequest">
    <part name="parameters" element="tns:createLoanRequest"/>
  </message>
  <message name="createLoanResponse">
    <part name="parameters" element="tns:createLoanResponse"/>
  </message>
  <message name="returnLoanRequest">
    <part name="parameters" element="tns:returnLoanRequest"/>
  </message>
  <message name="returnLoanResponse">
    <part name="parameters" element="tns:returnLoanResponse"/>
  </message>
  <message name="getLoanByIdRequest">
    <part name="parameters" element="tns:getLoanByIdRequest"/>
  </message>
  <message name="getLoanByIdResponse">
    <part name="parameters" element="tns:getLoanByIdResponse"/>
  </message>
  <message name="getLoansByUserRequest">
    <part name="parameters" element="tns:getLoansByUserRequest"/>
  </message>
  <message name="getLoansByUserResponse">
    <part name="parameters" element="tns:getLoansByUserResponse"/>
  </message>
  <message name="getAllLoansRequest">
    <part name="parameters" element="tns:getAllLoansRequest"/>
  </message>
  <message name="getAllLoansResponse">
    <part name="parameters" element="tns:getAllLoansResponse"/>
  </message>
  <portType name="LoanServicePortType">
    <operation name="createLoan">
      <input message="tns:createLoanRequest"/>
      <output message="tns:createLoanResponse"/>
    </operation>
    <operation name="returnLoan">
      <input message="tns:returnLoanRequest"/>
      <output message="tns:returnLoanResponse"/>
    </operation>
    <operation name="getLoanById">
      <input message="tns:getLoanByIdRequest"/>
      <output message="tns:getLoanByIdResponse"/>
    </operation>
    <operation name="getLoansByUser">
      <input message="tns:getLoansByUserRequest"/>
      <output message="tns:getLoansByUserResponse"/>
    </operation>
    <operation name="getAllLoans">
      <input message="tns:getAllLoansRequest"/>
      <output message="tns:getAllLoansResponse"/>
    </operation>
  </portType>
  <binding name="LoanServiceBinding" type="tns:LoanServicePortType">
    <soap:binding style="document" transport="http://schemas.xmlsoap.org/soap/http"/>
    <operation name="createLoan">
      <soap:operation soapAction="createLoan"/>
      <input><soap:body use="literal"/></input>
      <output><soap:body use="literal"/></output>
    </operation>
    <operation name="returnLoan">
      <soap:operation soapAction="returnLoan"/>
      <input><soap:body use="literal"/></input>
      <output><soap:body use="literal"/></output>
    </operation>
    <operation name="getLoanById">
      <soap:operation soapAction="getLoanById"/>
      <input><soap:body use="literal"/></input>
      <output><soap:body use="literal"/></output>
    </operation>
    <operation name="getLoansByUser">
      <soap:operation soapAction="getLoansByUser"/>
      <input><soap:body use="literal"/></input>
      <output><soap:body use="literal"/></output>
    </operation>
    <operation name="getAllLoans">
      <soap:operation soapAction="getAllLoans"/>
      <input><soap:body use="literal"/></input>
      <output><soap:body use="literal"/></output>
    </operation>
  </binding>
  <service name="LoanService">
    <port name="LoanServicePort" binding="tns:LoanServiceBinding">
      <soap:address location="http://localhost:8083/ws"/>
    </port>
  </service>
</definitions>`
